package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"image-recon/internal/reconcile/model"
)

func ptr(v float64) *float64 { return &v }

func TestPolicyAuthorize(t *testing.T) {
	cases := []struct {
		name string
		opt  model.Options
		avg  float64
		want bool
	}{
		{"dry run blocks everything", model.Options{DryRun: true, ConfirmHigh: true, ConfirmThreshold: ptr(0)}, 1, false},
		{"no policy writes nothing", model.Options{}, 1, false},
		{"confirm high accepts 0.90", model.Options{ConfirmHigh: true}, 0.90, true},
		{"confirm high rejects 0.89", model.Options{ConfirmHigh: true}, 0.89, false},
		{"threshold 0.9 accepts 0.95", model.Options{ConfirmThreshold: ptr(0.9)}, 0.95, true},
		{"threshold 0.97 rejects 0.95", model.Options{ConfirmThreshold: ptr(0.97)}, 0.95, false},
		{"threshold overrides confirm high", model.Options{ConfirmHigh: true, ConfirmThreshold: ptr(0.5)}, 0.6, true},
		{"threshold zero accepts missing", model.Options{ConfirmThreshold: ptr(0)}, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PolicyFrom(tc.opt).Authorize(tc.avg))
		})
	}
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "dry-run", Policy{DryRun: true}.String())
	assert.Equal(t, "threshold>=0.75", Policy{Threshold: ptr(0.75)}.String())
	assert.Equal(t, "confirm-high>=0.90", Policy{High: true}.String())
	assert.Equal(t, "no-write", Policy{}.String())
}
