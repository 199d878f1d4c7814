package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/debtwise/go-debtwise-client/auth"
	"github.com/debtwise/go-debtwise-client/internal/config"
	"github.com/debtwise/go-debtwise-client/jobs"
	"github.com/debtwise/go-debtwise-client/plans"
	"github.com/debtwise/go-debtwise-client/provider"
	"github.com/debtwise/go-debtwise-client/rest"
	"github.com/debtwise/go-debtwise-client/session"
	"github.com/debtwise/go-debtwise-client/transport"
	"github.com/debtwise/go-debtwise-client/users"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: debtwise <login|callback|whoami|plan|logout>")
}

func run(command string) error {
	c := config.New()
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := session.NewBoltKV(filepath.Join(c.GetDataFolder(), "debtwise.db"))
	if err != nil {
		return err
	}
	defer kv.Close()
	store := session.NewStore(kv)

	prov, err := provider.NewOIDCProvider(ctx, provider.OIDCConfig{
		IssuerURL:   c.GetIssuerURL(),
		ClientID:    c.GetClientID(),
		RedirectURL: c.GetRedirectURL(),
		Scopes:      c.GetScopes(),
	}, store)
	if err != nil {
		return err
	}

	httpClient := &http.Client{
		Transport: transport.NewBearer(store, prov),
		Timeout:   c.GetRequestTimeout(),
	}
	api := rest.New(c.GetAPIBaseURL(), httpClient)
	userService := users.NewService(api)
	jobService := jobs.NewService(api)
	poller := jobs.NewPoller(jobService,
		jobs.WithInterval(c.GetPollInterval()),
		jobs.WithMaxAttempts(c.GetMaxPollAttempts()),
		jobs.WithProgress(func(progress int) {
			log.Info().Int("progress", progress).Msg("Working")
		}),
	)
	planService := plans.NewService(api, jobService, poller)

	manager, err := auth.NewManager(prov, userService, store)
	if err != nil {
		return err
	}
	defer manager.Close()

	switch command {
	case "login":
		return login(ctx, manager)
	case "callback":
		return resolveCallback(ctx, store, userService, manager, prov)
	case "whoami":
		return whoami(ctx, manager)
	case "plan":
		return generatePlan(ctx, manager, planService)
	case "logout":
		manager.Start(ctx)
		manager.Logout(ctx)
		log.Info().Msg("Signed out")
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func login(ctx context.Context, manager *auth.Manager) error {
	signInURL := manager.SignInWithGoogle(ctx)
	if signInURL == "" {
		return fmt.Errorf("could not start sign-in: %s", manager.Snapshot().Err)
	}
	fmt.Printf("Open this URL in your browser to sign in:\n\n  %s\n\n", signInURL)
	fmt.Println("After the redirect, run: DEBTWISE_FRAGMENT='<url fragment>' debtwise callback")
	return nil
}

func resolveCallback(ctx context.Context, store *session.Store, userService *users.Service, manager *auth.Manager, verifier auth.IDTokenVerifier) error {
	fragment := os.Getenv("DEBTWISE_FRAGMENT")
	if fragment == "" {
		return fmt.Errorf("set DEBTWISE_FRAGMENT to the redirect URL's fragment")
	}
	resolver, err := auth.NewCallbackResolver(store, userService,
		auth.WithManager(manager),
		auth.WithVerifier(verifier),
	)
	if err != nil {
		return err
	}
	outcome, err := resolver.Resolve(ctx, fragment)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s; continue at %s\n", outcome.Profile.Email, outcome.Route)
	return nil
}

func whoami(ctx context.Context, manager *auth.Manager) error {
	manager.Start(ctx)
	snapshot := manager.Snapshot()
	if snapshot.State != auth.StateAuthenticated {
		return fmt.Errorf("not signed in (state: %s, err: %s)", snapshot.State, snapshot.Err)
	}
	fmt.Printf("Signed in as %s (%s)\n", snapshot.Profile.Email, snapshot.Profile.ID)
	fmt.Printf("Onboarding completed: %t\n", snapshot.Profile.OnboardingCompleted)
	return nil
}

func generatePlan(ctx context.Context, manager *auth.Manager, planService *plans.Service) error {
	manager.Start(ctx)
	if manager.Snapshot().State != auth.StateAuthenticated {
		return fmt.Errorf("sign in first")
	}
	plan, err := planService.GenerateAndWait(ctx, plans.Request{Strategy: plans.StrategyAvalanche})
	if err != nil {
		return err
	}
	fmt.Printf("Debt free by %s after %d months; interest saved: %.2f\n",
		plan.DebtFreeDate, plan.TotalMonths, plan.InterestSaved)
	return nil
}

func displayAppname(appName string) {
	myFigure := figure.NewFigure(appName, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
