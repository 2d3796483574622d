package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmitRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     SubmitRequest
		wantErr string
	}{
		{"valid", SubmitRequest{Kind: KindOptIn, Sender: "GALICE", Args: []string{"Café ☀"}}, ""},
		{"missing kind", SubmitRequest{Sender: "GALICE"}, "kind is required"},
		{"NUL sender", SubmitRequest{Kind: KindOptIn, Sender: "GA\x00"}, "sender contains a NUL character"},
		{"invalid UTF-8 arg", SubmitRequest{Kind: KindCreateProject, Args: []string{"ok", "\xff"}}, "args[1] is not valid UTF-8"},
		{"NUL payment source", SubmitRequest{Kind: KindContribute, Payments: []Payment{{From: "\x00", To: "C"}}}, "payments[0].from contains a NUL character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
