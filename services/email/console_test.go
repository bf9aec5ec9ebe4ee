package emailsvc

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnuragJha1954/lms/core"
)

func TestConsoleService_SendMessages(t *testing.T) {
	conf := core.NewTestConfig()
	out := new(bytes.Buffer)
	svc := NewConsoleServiceMock(conf)
	svc.out = out

	to := []mail.Address{{Name: "Awe", Address: "awe@test.cd"}}
	plain := &core.EmailMessage{To: to, Subject: "Hello", BodyStr: "plain body"}
	noRecipient := &core.EmailMessage{Subject: "Lost", BodyStr: "nobody"}
	empty := &core.EmailMessage{To: to, Subject: "Empty"}

	withFile := &core.EmailMessage{To: to, Subject: "Report", BodyStr: "see attached"}
	require.NoError(t, withFile.Attach(strings.NewReader("a,b\n1,2\n"), "report.csv", "text/csv"))

	svc.SendMessages(plain, noRecipient, empty, withFile)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "Hello", sent[0].Subject)
	assert.Equal(t, "Report", sent[1].Subject)

	written := out.String()
	assert.Contains(t, written, "Subject: [LMS] Hello")
	assert.Contains(t, written, "To: \"Awe\" <awe@test.cd>")
	assert.Contains(t, written, "plain body")
	assert.Contains(t, written, "multipart/mixed")
	assert.Contains(t, written, "attachment; filename=report.csv")
	assert.NotContains(t, written, "nobody")

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestConsoleService_templates(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewConsoleServiceMock(conf)

	svc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: "awe@test.cd"}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: map[string]string{"Name": "Awe", "Email": "awe@test.cd", "SchoolName": "Kinshasa High"},
	})

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Hello Awe,")
	assert.Contains(t, sent[0].TextContent, "Kinshasa High")
	assert.NotEmpty(t, sent[0].HTMLContent)
}
