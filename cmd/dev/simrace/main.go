package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// simrace fires concurrent approve/reject calls at one pending request and
// checks that exactly one of them wins.
func main() {
	var (
		base      = flag.String("url", "", "API base url (defaults to http://localhost<HTTP_ADDR>)")
		requestID = flag.String("request", "", "id of a pending booking request")
		host      = flag.String("host", "", "host user id, sent as X-User-ID (needs AUTH_DEV_HEADERS=true)")
		bearer    = flag.String("token", "", "host session token; takes precedence over -host")
		n         = flag.Int("n", 8, "number of concurrent calls")
	)
	flag.Parse()

	if *requestID == "" {
		fmt.Fprintln(os.Stderr, "missing -request")
		os.Exit(2)
	}
	if *host == "" && *bearer == "" {
		fmt.Fprintln(os.Stderr, "missing -host or -token")
		os.Exit(2)
	}
	if *base == "" {
		httpAddr := os.Getenv("HTTP_ADDR")
		if httpAddr == "" {
			httpAddr = ":8081"
		}
		if strings.HasPrefix(httpAddr, ":") {
			*base = "http://localhost" + httpAddr
		} else {
			*base = "http://" + httpAddr
		}
	}

	type result struct {
		action string
		status int
		body   string
		err    error
	}

	client := &http.Client{Timeout: 10 * time.Second}
	results := make([]result, *n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < *n; i++ {
		action := "approve"
		if i%2 == 1 {
			action = "reject"
		}
		wg.Add(1)
		go func(i int, action string) {
			defer wg.Done()
			<-start

			req, err := http.NewRequest(http.MethodPut, *base+"/api/requests/"+*requestID+"/"+action, nil)
			if err != nil {
				results[i] = result{action: action, err: err}
				return
			}
			if *bearer != "" {
				req.Header.Set("Authorization", "Bearer "+*bearer)
			} else {
				req.Header.Set("X-User-ID", *host)
			}
			resp, err := client.Do(req)
			if err != nil {
				results[i] = result{action: action, err: err}
				return
			}
			defer resp.Body.Close()
			b, _ := io.ReadAll(resp.Body)
			results[i] = result{action: action, status: resp.StatusCode, body: strings.TrimSpace(string(b))}
		}(i, action)
	}
	close(start)
	wg.Wait()

	wins := 0
	for i, r := range results {
		if r.err != nil {
			fmt.Printf("#%d %-7s error=%v\n", i, r.action, r.err)
			continue
		}
		if r.status == http.StatusOK {
			wins++
		}
		fmt.Printf("#%d %-7s status=%d body=%s\n", i, r.action, r.status, r.body)
	}

	fmt.Printf("\nwinners=%d of %d\n", wins, *n)
	if wins != 1 {
		os.Exit(1)
	}
}
