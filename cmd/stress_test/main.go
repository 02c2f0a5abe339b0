package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
)

const (
	basketURL     = "http://localhost:8081"
	inventoryURL  = "http://localhost:8082"
	itemNo        = "stress-item"
	initialStock  = 20
	totalRequests = 50
	sameUserBurst = 10
)

var client = &http.Client{Timeout: 10 * time.Second}

func main() {
	ctx := context.Background()
	runID := uuid.NewString()[:8]

	// Seed stock through a purchase document
	doc := domain.StockDocument{
		DocumentNo: "PO-STRESS-" + runID,
		Lines:      []domain.DocumentLine{{ItemNo: itemNo, Quantity: initialStock}},
	}
	if status, err := post(ctx, inventoryURL+"/api/inventory/purchase", doc); err != nil || status != http.StatusCreated {
		log.Fatalf("failed to seed stock: status=%d err=%v", status, err)
	}

	// Phase 1: distinct users, one unit each
	users := make([]string, totalRequests)
	for i := range users {
		users[i] = fmt.Sprintf("stress-%s-%d", runID, i)
		seedBasket(ctx, users[i])
	}

	start := time.Now()
	distinct := fire(ctx, users)
	elapsed := time.Since(start)

	// Phase 2: one user, many concurrent checkouts
	burstUser := fmt.Sprintf("stress-%s-burst", runID)
	seedBasket(ctx, burstUser)
	burst := make([]string, sameUserBurst)
	for i := range burst {
		burst[i] = burstUser
	}
	sameUser := fire(ctx, burst)

	fmt.Println("========== CHECKOUT LOAD RESULTS ==========")
	fmt.Printf("Seeded Stock:     %d\n", initialStock)
	fmt.Printf("Checkouts:        %d\n", totalRequests)
	printStatuses(distinct)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("-------- same user burst --------")
	printStatuses(sameUser)
	fmt.Println("============================================")

	// Stock is validated, not reserved: every basket asks for 1 unit of a
	// positive stock, so all of them pass validation.
	if distinct[http.StatusAccepted] == totalRequests {
		fmt.Printf("PASS: all %d checkouts accepted\n", totalRequests)
	} else {
		fmt.Printf("FAIL: expected %d accepted, got %d\n", totalRequests, distinct[http.StatusAccepted])
	}

	if sameUser[http.StatusAccepted] == 1 {
		fmt.Println("PASS: exactly one checkout accepted for the same basket")
	} else {
		fmt.Printf("FAIL: expected 1 accepted for the same basket, got %d\n", sameUser[http.StatusAccepted])
	}
}

func seedBasket(ctx context.Context, userName string) {
	basket := domain.Basket{
		UserName: userName,
		Items: []domain.BasketItem{{
			ItemNo:    itemNo,
			ItemName:  "Stress Item",
			ItemPrice: decimal.RequireFromString("9.99"),
			Quantity:  1,
		}},
	}
	if status, err := post(ctx, basketURL+"/api/baskets", basket); err != nil || status != http.StatusOK {
		log.Fatalf("failed to seed basket for %s: status=%d err=%v", userName, status, err)
	}
}

// fire checks out every user concurrently and counts response codes.
func fire(ctx context.Context, users []string) map[int]int {
	var (
		mu     sync.Mutex
		counts = make(map[int]int)
		wg     sync.WaitGroup
	)

	for _, user := range users {
		wg.Add(1)
		go func(userName string) {
			defer wg.Done()

			status, err := post(ctx, basketURL+"/api/baskets/checkout", domain.CheckoutRequest{
				UserName:        userName,
				FirstName:       "Load",
				LastName:        "Test",
				EmailAddress:    "load@example.com",
				ShippingAddress: "1 Test Way",
				InvoiceAddress:  "1 Test Way",
			})
			if err != nil {
				status = -1
			}

			mu.Lock()
			counts[status]++
			mu.Unlock()
		}(user)
	}

	wg.Wait()
	return counts
}

func post(ctx context.Context, url string, body any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func printStatuses(counts map[int]int) {
	codes := make([]int, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		label := http.StatusText(code)
		if code == -1 {
			label = "transport error"
		}
		fmt.Printf("  %3d %-22s %d\n", code, label, counts[code])
	}
}
