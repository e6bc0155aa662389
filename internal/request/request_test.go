package request

import (
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
)

func TestToJsonReq(t *testing.T) {
	buf, err := ToJsonReq(map[string]string{"event": "transaction.created"})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"event":"transaction.created"}`, buf.String())
}

func TestCall(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://hooks.local/notify",
		httpmock.NewStringResponder(200, `{"ok":true}`))

	payload, err := ToJsonReq(map[string]string{"event": "account.closed"})
	assert.NoError(t, err)

	req, err := http.NewRequest("POST", "http://hooks.local/notify", payload)
	assert.NoError(t, err)

	var response map[string]interface{}
	resp, err := Call(req, &response)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, response["ok"])
}
