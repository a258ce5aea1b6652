package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/testhelpers"
)

func TestNewPublisherNilClient(t *testing.T) {
	assert.Nil(t, NewPublisher(nil, testhelpers.NewTestLogger()))
}

func TestNilPublisherIsNoOp(t *testing.T) {
	var p *Publisher

	assert.NoError(t, p.Publish(context.Background(), Event{EventType: RunStarted}))
	assert.NotPanics(t, func() {
		p.PublishAsync(Event{EventType: RunCompleted})
	})
}
