package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rentals/internal/property"
	"rentals/pkg/config"
	"rentals/pkg/db"
	"rentals/pkg/token"
)

func main() {
	var (
		hostID   = flag.String("host", "host-1", "owner user id for the seeded property")
		guestID  = flag.String("guest", "guest-1", "user id to print a guest token for")
		title    = flag.String("title", "Seaside Cottage", "property title")
		capacity = flag.Int("capacity", 4, "property capacity")
		price    = flag.String("price", "120.00", "price per night")
		expires  = flag.String("expires", "", "optional expire date (YYYY-MM-DD)")
		ttl      = flag.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrationsPath != "" {
		if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	}

	pricePerNight, err := decimal.NewFromString(*price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -price: %v\n", err)
		os.Exit(2)
	}

	p := &property.Property{
		ID:            uuid.NewString(),
		Title:         *title,
		Location:      "Harbour Road 1",
		City:          "Lisbon",
		Country:       "PT",
		PricePerNight: pricePerNight,
		Description:   "Seeded for local testing.",
		Features:      []string{"wifi", "kitchen"},
		Images:        []string{},
		Capacity:      *capacity,
		Rooms:         2,
		Status:        property.StatusAvailable,
		UserID:        *hostID,
		CreatedDate:   time.Now().UTC(),
	}
	if *expires != "" {
		t, err := property.ParseDate(*expires)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -expires: %v\n", err)
			os.Exit(2)
		}
		p.ExpireDate = &t
	}

	if err := property.NewRepository(pool).Create(ctx, p); err != nil {
		fmt.Fprintf(os.Stderr, "create property: %v\n", err)
		os.Exit(1)
	}

	base := defaultBaseURL(cfg.HTTPAddr)
	fmt.Printf("Seed complete.\n")
	fmt.Printf("property_id=%s owner=%s capacity=%d price=%s\n", p.ID, p.UserID, p.Capacity, p.PricePerNight.StringFixed(2))

	hostAuth := "-H 'X-User-ID: " + *hostID + "'"
	guestAuth := "-H 'X-User-ID: " + *guestID + "'"
	if cfg.Auth.TokenSecret == "" && !cfg.DevHeaderSessions() {
		fmt.Println("note: set AUTH_TOKEN_SECRET, or AUTH_DEV_HEADERS=true outside prod, for these calls to authenticate")
	}
	if cfg.Auth.TokenSecret != "" {
		now := time.Now()
		hostTok, err := token.Issue(*hostID, token.RoleUser, cfg.Auth.TokenSecret, cfg.Auth.TokenAudience, now, *ttl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue host token: %v\n", err)
			os.Exit(1)
		}
		guestTok, err := token.Issue(*guestID, token.RoleUser, cfg.Auth.TokenSecret, cfg.Auth.TokenAudience, now, *ttl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue guest token: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("host_token=%s\n", hostTok)
		fmt.Printf("guest_token=%s\n", guestTok)
		hostAuth = "-H 'Authorization: Bearer " + hostTok + "'"
		guestAuth = "-H 'Authorization: Bearer " + guestTok + "'"
	}

	fmt.Printf("\nNext steps:\n")
	fmt.Printf("- Guest requests a stay:\n")
	fmt.Printf("  curl -X POST %s/api/requests %s -d '{\"propertyId\":\"%s\",\"userId\":\"%s\",\"numberOfGuests\":2}'\n", base, guestAuth, p.ID, *guestID)
	fmt.Printf("- Host approves it:\n")
	fmt.Printf("  curl -X PUT %s/api/requests/{requestId}/approve %s\n", base, hostAuth)
}

func defaultBaseURL(httpAddr string) string {
	// httpAddr is typically ":8081" or "0.0.0.0:8081".
	addr := strings.TrimSpace(httpAddr)
	if addr == "" {
		addr = ":8081"
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	if strings.HasPrefix(addr, "0.0.0.0:") {
		return "http://localhost" + strings.TrimPrefix(addr, "0.0.0.0")
	}
	return "http://" + addr
}
