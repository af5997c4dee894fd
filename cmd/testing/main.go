package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

var URL, _ = os.LookupEnv("API_URL")
var PORT, _ = os.LookupEnv("API_PORT")
var apiURL = fmt.Sprintf("http://%s:%s/api/v1/wallet/transactions", URL, PORT)

const (
	workers  = 10
	duration = 30 * time.Second
)

var userID = uuid.New().String()

var providers = []string{"paystack_ng", "flutterwave_gh", "stripe_us", "mpesa_ke"}
var destinations = []string{"ecommerce", "crypto", "rewards", "freelance"}
var recipients = []struct {
	Type       string
	Field      string
	Identifier string
}{
	{"username", "recipientUsername", "load_tester"},
	{"email", "recipientEmail", "load@example.com"},
	{"bank_account", "bankAccountId", "0011223344"},
	{"mobile_money", "recipientPhone", "+254700000001"},
}

func main() {
	var wg sync.WaitGroup
	wg.Add(workers + 1)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			start := time.Now()
			for time.Since(start) < duration {
				var resp *http.Response
				var err error
				if rand.Float64() < 0.7 {
					resp, err = sendDeposit()
				} else {
					resp, err = sendWithdrawal()
				}
				if err != nil {
					fmt.Println("Error sending request:", err)
				} else {
					var body interface{}
					json.NewDecoder(resp.Body).Decode(&body)
					fmt.Printf("Status code: %d, Message: %v\n", resp.StatusCode, body)
					resp.Body.Close()
				}

				time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)
			}
		}()
	}

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(5 * time.Second)
		for range ticker.C {
			printSummary()
		}
	}()

	wg.Wait()
	printSummary()
}

func sendDeposit() (*http.Response, error) {
	payload := map[string]interface{}{
		"amount":           fmt.Sprintf("%.2f", rand.Float64()*500+1),
		"method":           "card",
		"methodProviderId": providers[rand.Intn(len(providers))],
		"destination":      destinations[rand.Intn(len(destinations))],
		"countryCode":      "NG",
		"currency":         "USD",
		"email":            "load@example.com",
		"phone":            "+254700000001",
	}
	return post(apiURL+"/deposit/initiate", payload)
}

func sendWithdrawal() (*http.Response, error) {
	recipient := recipients[rand.Intn(len(recipients))]
	payload := map[string]interface{}{
		"amount":        fmt.Sprintf("%.2f", rand.Float64()*200+1),
		"recipientType": recipient.Type,
		recipient.Field: recipient.Identifier,
	}
	return post(apiURL+"/withdraw/initiate", payload)
}

func post(url string, payload interface{}) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)

	return http.DefaultClient.Do(req)
}

func printSummary() {
	req, err := http.NewRequest(http.MethodGet, apiURL+"/summary/daily", nil)
	if err != nil {
		fmt.Println("Error building summary request:", err)
		return
	}
	req.Header.Set("X-User-ID", userID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("Error getting summary:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Println("Wrong status code:", resp.StatusCode)
		return
	}

	var summary interface{}
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		fmt.Println("Error decoding summary:", err)
		return
	}

	fmt.Printf("Daily summary: %v\n", summary)
}
