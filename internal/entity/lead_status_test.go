package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	expected := map[LeadStatus][]LeadStatus{
		StatusNew:       {StatusContacted, StatusLost},
		StatusContacted: {StatusQuoteSent, StatusLost},
		StatusQuoteSent: {StatusQualified, StatusConverted, StatusLost},
		StatusQualified: {StatusConverted, StatusLost},
		StatusConverted: {},
		StatusLost:      {},
	}

	for _, from := range AllStatuses() {
		assert.ElementsMatch(t, expected[from], NextStatuses(from), "successors of %s", from)

		for _, to := range AllStatuses() {
			want := false
			for _, s := range expected[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestSelfTransitionRejected(t *testing.T) {
	for _, s := range AllStatuses() {
		err := ValidateTransition(s, s)
		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "lead is already in this status", te.Reason)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusConverted.Terminal())
	assert.True(t, StatusLost.Terminal())
	assert.False(t, StatusQualified.Terminal())
	assert.True(t, StatusQuoteSent.Active())
	assert.False(t, StatusLost.Active())

	err := ValidateTransition(StatusLost, StatusNew)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Empty(t, te.Allowed)
	assert.Contains(t, te.Reason, "none (terminal status)")
}

func TestNewToConvertedListsAllowed(t *testing.T) {
	err := ValidateTransition(StatusNew, StatusConverted)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, []LeadStatus{StatusContacted, StatusLost}, te.Allowed)
	assert.Equal(t, `invalid status transition from "NEW" to "CONVERTED"; allowed transitions: CONTACTED, LOST`, te.Error())
}

func TestParseLeadStatus(t *testing.T) {
	s, err := ParseLeadStatus("quote sent")
	require.NoError(t, err)
	assert.Equal(t, StatusQuoteSent, s)

	s, err = ParseLeadStatus(" lost ")
	require.NoError(t, err)
	assert.Equal(t, StatusLost, s)

	_, err = ParseLeadStatus("Closed Won")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	assert.False(t, LeadStatus(42).Valid())
	assert.Error(t, ValidateTransition(LeadStatus(42), StatusNew))
}

func TestLeadStatusJSON(t *testing.T) {
	body, err := json.Marshal(struct {
		Status LeadStatus `json:"status"`
	}{StatusQuoteSent})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"QUOTE_SENT"}`, string(body))

	var decoded struct {
		Status LeadStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"QUALIFIED"}`), &decoded))
	assert.Equal(t, StatusQualified, decoded.Status)
	assert.Error(t, json.Unmarshal([]byte(`{"status":"WON"}`), &decoded))
}

func TestQuoteResponseLeadStatus(t *testing.T) {
	s, ok := ResponseAccepted.LeadStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusConverted, s)

	s, ok = ResponseDeclined.LeadStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusLost, s)

	_, ok = ResponsePending.LeadStatus()
	assert.False(t, ok)

	_, err := ParseQuoteResponse("maybe")
	assert.Error(t, err)
}
