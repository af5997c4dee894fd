package repeat

import "time"

// Repeat calls f up to attempts times, sleeping delay between failures,
// and returns the last error when every attempt fails.
func Repeat(f func() error, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		time.Sleep(delay)
	}

	return err
}
