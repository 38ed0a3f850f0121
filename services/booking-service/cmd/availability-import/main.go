// Command availability-import loads weekly doctor availability from a YAML
// file into a running booking service.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Savotageofficial/capsule/libs/auth"
	"github.com/Savotageofficial/capsule/libs/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fatal(err.Error())
	}
	var (
		baseURL = flag.String("base-url", config.String("BASE_URL", "http://localhost:8083"), "booking service base url")
		file    = flag.String("file", "", "schedule YAML file")
		token   = flag.String("token", config.String("BOOKING_TOKEN", ""), "bearer token; minted per doctor from -secret when empty")
		secret  = flag.String("secret", config.String("JWT_SECRET", ""), "HS256 secret used to mint doctor tokens")
		dryRun  = flag.Bool("dry-run", false, "validate the file without calling the service")
	)
	flag.Parse()

	if strings.TrimSpace(*file) == "" {
		fatal("-file is required")
	}
	f, err := os.Open(*file)
	if err != nil {
		fatal(err.Error())
	}
	schedules, err := parseSchedules(f)
	f.Close()
	if err != nil {
		fatal(err.Error())
	}
	if *dryRun {
		fmt.Printf("ok doctors=%d\n", len(schedules))
		return
	}
	if *token == "" && *secret == "" {
		fatal("one of -token or -secret is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	failed := 0
	for _, s := range schedules {
		bearer := *token
		if bearer == "" {
			// availability can only be written by the doctor who owns it
			bearer, err = auth.SignHS256(s.DoctorID, string(auth.RoleDoctor), *secret, 5*time.Minute)
			if err != nil {
				fatal(err.Error())
			}
		}
		im := &importer{baseURL: *baseURL, token: bearer, client: &http.Client{Timeout: 10 * time.Second}}
		if err := im.push(ctx, s); err != nil {
			failed++
			fmt.Fprintln(os.Stderr, "import failed:", err)
			continue
		}
		fmt.Printf("imported doctor=%s\n", s.DoctorID)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
