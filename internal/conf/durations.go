package conf

import "time"

// defaultDuration parses s, falling back to fallback when s is empty or
// malformed. Settings durations are stored as strings (matching the on-disk
// YAML shape) and parsed lazily by the components that need them.
func defaultDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// InvokerTimeout returns the parsed Invoker.Timeout, defaulting to 5 minutes.
func (s *Settings) InvokerTimeout() time.Duration {
	return defaultDuration(s.Invoker.Timeout, 5*time.Minute)
}

// RetryBaseDelay returns the parsed Queue.RetryBaseDelay, defaulting to 2s.
func (s *Settings) RetryBaseDelay() time.Duration {
	return defaultDuration(s.Queue.RetryBaseDelay, 2*time.Second)
}

// RetryMaxDelay returns the parsed Queue.RetryMaxDelay, defaulting to 2m.
func (s *Settings) RetryMaxDelay() time.Duration {
	return defaultDuration(s.Queue.RetryMaxDelay, 2*time.Minute)
}

// UploadTimeout returns the parsed Delivery.UploadTimeout, defaulting to 10m.
func (s *Settings) UploadTimeout() time.Duration {
	return defaultDuration(s.Delivery.UploadTimeout, 10*time.Minute)
}
