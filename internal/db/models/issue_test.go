package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueMetadataUpdate_ApplyTrimsText(t *testing.T) {
	issue := NewNewsletterIssue(IssueTypeEvergreen)

	IssueMetadataUpdate{
		Subject:     strPtr("  Monday brief "),
		PreviewText: strPtr("\tfive episodes worth your commute\n"),
	}.Apply(issue)

	require.NotNil(t, issue.Subject)
	assert.Equal(t, "Monday brief", *issue.Subject)
	require.NotNil(t, issue.PreviewText)
	assert.Equal(t, "five episodes worth your commute", *issue.PreviewText)
}

func TestIssueMetadataUpdate_UnmarshalJSON(t *testing.T) {
	march3 := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		body    string
		want    *time.Time
		wantErr bool
	}{
		{name: "calendar date", body: `{"issue_date":"2025-03-03"}`, want: &march3},
		{name: "rfc3339 timestamp", body: `{"issue_date":"2025-03-03T00:00:00Z"}`, want: &march3},
		{name: "omitted", body: `{"subject":"x"}`},
		{name: "null", body: `{"issue_date":null}`},
		{name: "not a date", body: `{"issue_date":"next monday"}`, wantErr: true},
		{name: "day out of range", body: `{"issue_date":"2025-02-30"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u IssueMetadataUpdate
			err := json.Unmarshal([]byte(tt.body), &u)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, u.IssueDate)
				return
			}
			require.NotNil(t, u.IssueDate)
			assert.True(t, tt.want.Equal(*u.IssueDate))
		})
	}

	var u IssueMetadataUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"subject":"Monday brief","preview_text":""}`), &u))
	assert.Equal(t, "Monday brief", *u.Subject)
	require.NotNil(t, u.PreviewText)
	assert.Empty(t, *u.PreviewText)
}
