// Command redeem submits a Claude credit redemption from the terminal. It
// keeps the same 24 hour cooldown a browser would, in a state file.
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/asucbc/cbc-api/pkg/cooldown"
	"github.com/asucbc/cbc-api/pkg/geo"
	"github.com/asucbc/cbc-api/pkg/httpclient"
	"github.com/asucbc/cbc-api/pkg/logger"
	"github.com/asucbc/cbc-api/pkg/redeemclient"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	v, err := loadOptions(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if err := logger.Initialize(logger.Config{Level: v.GetString("log-level"), Environment: "development"}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	statePath := v.GetString("state")
	if statePath == "" {
		statePath, err = cooldown.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot locate state file: %v\n", err)
			return 1
		}
	}
	guard := cooldown.NewGuard(cooldown.NewFileStore(statePath), cooldown.DefaultWindow)

	if v.GetBool("reset") {
		if err := guard.Reset(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("Cooldown cleared.")
		return 0
	}

	client := redeemclient.New(redeemclient.Config{
		Endpoint:        v.GetString("endpoint"),
		LocationTimeout: v.GetDuration("location-timeout"),
	}, httpclient.NewClientWithTimeout(30*time.Second), locationFrom(v), guard)

	if v.GetBool("status") {
		state, err := client.Cooldown()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if state.Active {
			fmt.Printf("Next submission available in %s.\n", state.Display())
		} else {
			fmt.Println("No cooldown active.")
		}
		return 0
	}

	form, err := formFrom(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := client.Submit(ctx, form)
	if err != nil {
		return report(err)
	}

	fmt.Println(result.Message)
	fmt.Printf("Next submission available in %s.\n", result.Cooldown.Display())
	return 0
}

func loadOptions(args []string) (*viper.Viper, error) {
	fs := pflag.NewFlagSet("redeem", pflag.ContinueOnError)
	fs.String("endpoint", redeemclient.DefaultEndpoint, "redeem endpoint URL")
	fs.String("first-name", "", "first name")
	fs.String("last-name", "", "last name")
	fs.String("email", "", "ASU email address")
	fs.String("org-id", "", "Claude platform organization ID")
	fs.String("received-credits", "", "whether API credits were received before (yes or no)")
	fs.String("lat", "", "current latitude in degrees")
	fs.String("lon", "", "current longitude in degrees")
	fs.Duration("location-timeout", redeemclient.DefaultLocationTimeout, "how long to wait for a position fix")
	fs.String("state", "", "cooldown state file (default: user config dir)")
	fs.Bool("status", false, "print the cooldown state and exit")
	fs.Bool("reset", false, "clear the cooldown and exit")
	fs.String("log-level", "warn", "log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("REDEEM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

func formFrom(v *viper.Viper) (redeemclient.Form, error) {
	form := redeemclient.Form{
		FirstName: v.GetString("first-name"),
		LastName:  v.GetString("last-name"),
		ASUEmail:  v.GetString("email"),
		OrgID:     v.GetString("org-id"),
	}

	switch strings.ToLower(strings.TrimSpace(v.GetString("received-credits"))) {
	case "":
	case "yes", "y", "true":
		received := true
		form.HasReceivedCredits = &received
	case "no", "n", "false":
		received := false
		form.HasReceivedCredits = &received
	default:
		return form, fmt.Errorf("--received-credits must be yes or no")
	}

	return form, nil
}

// locationFrom returns a fixed position from --lat/--lon. Missing or invalid
// coordinates behave like a denied location permission.
func locationFrom(v *viper.Viper) redeemclient.LocationProvider {
	lat, latErr := parseDegrees(v.GetString("lat"))
	lon, lonErr := parseDegrees(v.GetString("lon"))
	if err := errors.Join(latErr, lonErr); err != nil {
		return redeemclient.LocationFunc(func(context.Context) (geo.Point, error) {
			return geo.Point{}, err
		})
	}
	return redeemclient.StaticLocation{Lat: lat, Lon: lon}
}

func parseDegrees(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("coordinate not provided")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid coordinate %q", raw)
	}
	return f, nil
}

func report(err error) int {
	var cooldownErr *redeemclient.CooldownError
	var formErr *redeemclient.FormError
	var submitErr *redeemclient.SubmitError

	switch {
	case errors.As(err, &cooldownErr):
		fmt.Fprintf(os.Stderr, "%s Next submission available in %s.\n", redeemclient.MsgCooldownActive, cooldownErr.State.Display())
	case errors.As(err, &formErr):
		for field, message := range formErr.FieldMessages() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", field, message)
		}
	case errors.As(err, &submitErr):
		fmt.Fprintf(os.Stderr, "%s [%s]\n", submitErr.Message, submitErr.Outcome)
	default:
		fmt.Fprintln(os.Stderr, err)
	}
	return 1
}
