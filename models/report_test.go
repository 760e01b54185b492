package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		violations int
		want       SeverityLevel
	}{
		{0, SeverityLow},
		{1, SeverityMedium},
		{2, SeverityMedium},
		{3, SeverityHigh},
		{5, SeverityHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySeverity(tt.violations), "violations=%d", tt.violations)
	}
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, StatusCompliant, ClassifyStatus(0))
	assert.Equal(t, StatusNonCompliant, ClassifyStatus(1))
	assert.Equal(t, StatusNonCompliant, ClassifyStatus(4))
}
