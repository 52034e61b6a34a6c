package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

var activationHTML = template.Must(template.New("activation").Parse(`<html>
<body>
<p>Hi {{.Username}},</p>
<p>Welcome to Chronicle. Click the link below to activate your account:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>If you did not sign up, you can ignore this email.</p>
</body>
</html>
`))

// ActivationMessage renders the account activation email for a user.
func ActivationMessage(to, username, link string) (Message, error) {
	var buf bytes.Buffer
	data := struct {
		Username string
		Link     string
	}{Username: username, Link: link}

	if err := activationHTML.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render activation email: %w", err)
	}

	text := fmt.Sprintf(
		"Hi %s,\n\nWelcome to Chronicle. Activate your account:\n\n%s\n\nIf you did not sign up, ignore this email.\n",
		username, link,
	)

	return Message{
		To:       to,
		Subject:  "Activate your Chronicle account",
		TextBody: text,
		HTMLBody: buf.String(),
	}, nil
}
