package tread

import (
	"context"

	"golang.org/x/time/rate"
)

const bytesPerMB = 1 << 20

// pacer caps walk throughput by charging each file's size against a
// token bucket before the file is yielded. The bucket holds one second
// of budget, so short bursts up to that amount pass without waiting
// while the long-run average stays at the configured rate.
type pacer struct {
	limiter *rate.Limiter
	burst   int
}

func newPacer(mbPerSec float64) *pacer {
	bytesPerSec := mbPerSec * bytesPerMB
	burst := int(bytesPerSec)
	if burst < 1 {
		burst = 1
	}
	return &pacer{
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
		burst:   burst,
	}
}

// charge blocks until size bytes of budget are available, drawing in
// burst-sized chunks so files larger than one bucket still get through.
// It returns early with the context's error when ctx expires.
func (p *pacer) charge(ctx context.Context, size int64) error {
	for size > 0 {
		n := size
		if n > int64(p.burst) {
			n = int64(p.burst)
		}
		if err := p.limiter.WaitN(ctx, int(n)); err != nil {
			return err
		}
		size -= n
	}
	return nil
}
