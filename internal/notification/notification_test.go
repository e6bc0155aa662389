package notification

import (
	"errors"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/stashbook-finance/stashbook/config"
)

func TestSlackNotification(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://slack.local/webhook",
		httpmock.NewStringResponder(200, `{"ok":true}`))

	cnf := &config.Configuration{}
	cnf.Notification.Slack.WebhookUrl = "http://slack.local/webhook"
	config.MockConfig(cnf)

	SlackNotification(errors.New("last_tx_date recompute failed for acc_1"))

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestNotifyError_NoWebhookConfigured(t *testing.T) {
	config.MockConfig(&config.Configuration{})
	// Must not panic or post anywhere when Slack is not configured.
	NotifyError(errors.New("boom"))
}
