package metrics

import (
	"context"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestServerStopsWithContext(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	errs := NewServer("127.0.0.1:0", log).Start(ctx, prometheus.NewRegistry())
	cancel()

	for err := range errs {
		assert.NoError(t, err)
	}
}
