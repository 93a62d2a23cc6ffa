package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestInWindow(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	assert.True(t, domain.InWindow(start, &start, &end), "lower bound is inclusive")
	assert.False(t, domain.InWindow(end, &start, &end), "upper bound is exclusive")
	assert.False(t, domain.InWindow(start.Add(-time.Nanosecond), &start, &end))
	assert.True(t, domain.InWindow(end.Add(-time.Nanosecond), &start, &end))
	assert.True(t, domain.InWindow(end, nil, nil))
	assert.True(t, domain.InWindow(end, &start, nil))
	assert.False(t, domain.InWindow(end, nil, &end))
}
