package server

import (
	"context"
	"encoding/json"
	"log"

	"chronicle/internal/models"
)

// Feed event types pushed over the WebSocket feed.
const (
	EventPostPublished   = "post.published"
	EventCommentCreated  = "comment.created"
	EventReactionUpdated = "post.reaction_updated"
	EventUserOnline      = "user.online"
	EventUserOffline     = "user.offline"
)

type feedEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// publishUserEvent delivers an event to one user: local hub connections
// directly, plus Redis so other instances can pick it up.
func (s *Server) publishUserEvent(ctx context.Context, userID uint, eventType string, payload any) {
	data, err := json.Marshal(feedEvent{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(userID, string(data))
	}
	if s.notifier != nil {
		if err := s.notifier.PublishUser(ctx, userID, string(data)); err != nil {
			s.logRedisError("publish_user_event", err)
		}
	}
}

// publishBroadcastEvent delivers an event to every connected feed client.
func (s *Server) publishBroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(feedEvent{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastAll(string(data))
	}
	if s.notifier != nil {
		if err := s.notifier.PublishBroadcast(ctx, string(data)); err != nil {
			s.logRedisError("publish_broadcast_event", err)
		}
	}
}

// publishToSubscribers fans an event out to everyone subscribed to authorID.
func (s *Server) publishToSubscribers(ctx context.Context, authorID uint, eventType string, payload any) {
	subscriberIDs, err := s.subscriptionRepo.ListSubscriberIDs(ctx, authorID)
	if err != nil {
		log.Printf("failed to list subscribers of user %d: %v", authorID, err)
		return
	}
	for _, id := range subscriberIDs {
		s.publishUserEvent(ctx, id, eventType, payload)
	}
}

// announcePostPublished notifies the author's subscribers and the public feed
// that a post went live.
func (s *Server) announcePostPublished(ctx context.Context, post *models.Post) {
	payload := map[string]any{
		"post_id":      post.ID,
		"author_id":    post.AuthorID,
		"published_at": post.PublishedAt,
	}
	s.publishBroadcastEvent(ctx, EventPostPublished, payload)
	s.publishToSubscribers(ctx, post.AuthorID, EventPostPublished, payload)
}

// announceComment notifies the post author about a new comment on their post.
func (s *Server) announceComment(ctx context.Context, postAuthorID uint, comment *models.Comment) {
	s.publishUserEvent(ctx, postAuthorID, EventCommentCreated, map[string]any{
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"author_id":  comment.AuthorID,
	})
}

// announcePresence tells a user's subscribers they came online or went
// away, so feeds can decorate author bylines live.
func (s *Server) announcePresence(userID uint, online bool) {
	event := EventUserOnline
	if !online {
		event = EventUserOffline
	}
	s.publishToSubscribers(context.Background(), userID, event, map[string]any{
		"user_id": userID,
		"online":  online,
	})
}

// announceReaction pushes an updated like count to the post author.
func (s *Server) announceReaction(ctx context.Context, post *models.Post) {
	s.publishUserEvent(ctx, post.AuthorID, EventReactionUpdated, map[string]any{
		"post_id":     post.ID,
		"likes_count": post.LikesCount,
	})
}
