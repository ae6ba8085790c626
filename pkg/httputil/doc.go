// Package httputil holds the retry loop shared by clients that talk to a
// resolver worker over HTTP.
//
// [Retry] only repeats errors marked with [RetryableError]. Callers decide
// what is transient; [RetryableStatus] gives the usual answer for HTTP
// status codes (5xx, 429 and 408):
//
//	err := httputil.Retry(ctx, httputil.Policy{Attempts: 3, Delay: time.Second}, func(attempt int) error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// The delay doubles after each failed attempt and is capped by
// Policy.MaxDelay.
package httputil
