package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addRequest struct {
	VideoID  string `json:"video_id" validate:"required,videoid"`
	Position *int   `json:"position,omitempty" validate:"omitempty,gte=0"`
}

type listRequest struct {
	Type  string `json:"type" validate:"required,issuetype"`
	Limit int    `json:"limit" validate:"min=1,max=100"`
	Note  string `json:"note" validate:"max=5"`
}

func TestIsValidVideoID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"dQw4w9WgXcQ", true},
		{"abc_DEF-123", true},
		{"short", false},
		{"dQw4w9WgXcQX", false},
		{"dQw4w9WgXc!", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidVideoID(tt.id))
		})
	}
}

func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		pos := 2
		assert.NoError(t, Struct(&addRequest{VideoID: "dQw4w9WgXcQ", Position: &pos}))
	})

	t.Run("missing video id", func(t *testing.T) {
		err := Struct(&addRequest{})
		var re *RequestError
		require.ErrorAs(t, err, &re)
		require.Len(t, re.Fields, 1)
		assert.Equal(t, "video_id", re.Fields[0].Field)
		assert.Equal(t, "required", re.Fields[0].Tag)
		assert.Equal(t, "video_id is required", re.Error())
	})

	t.Run("bad video id", func(t *testing.T) {
		err := Struct(&addRequest{VideoID: "nope"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "11 character video id")
	})

	t.Run("negative position", func(t *testing.T) {
		pos := -1
		err := Struct(&addRequest{VideoID: "dQw4w9WgXcQ", Position: &pos})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "position must be greater than or equal to 0")
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := Struct(&listRequest{Type: "weekly", Limit: 0, Note: "too long"})
		var re *RequestError
		require.ErrorAs(t, err, &re)
		assert.Len(t, re.Fields, 3)
		assert.Contains(t, err.Error(), "type must be urgent or evergreen")
		assert.Contains(t, err.Error(), "limit must be at least 1")
		assert.Contains(t, err.Error(), "note must be at most 5 characters")
	})
}
