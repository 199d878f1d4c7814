package plans_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	clienterrors "github.com/debtwise/go-debtwise-client/internal/errors"
	"github.com/debtwise/go-debtwise-client/jobs"
	"github.com/debtwise/go-debtwise-client/plans"
	"github.com/debtwise/go-debtwise-client/rest"
)

type planFixture struct {
	mux     *http.ServeMux
	server  *httptest.Server
	service *plans.Service
}

func setupPlanFixture(t *testing.T) *planFixture {
	t.Helper()
	fixture := &planFixture{mux: http.NewServeMux()}
	fixture.server = httptest.NewServer(fixture.mux)
	t.Cleanup(fixture.server.Close)

	client := rest.New(fixture.server.URL, nil)
	jobsService := jobs.NewService(client)
	poller := jobs.NewPoller(jobsService, jobs.WithInterval(time.Millisecond))
	fixture.service = plans.NewService(client, jobsService, poller)
	return fixture
}

func (f *planFixture) writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestGenerateReturnsJobHandle(t *testing.T) {
	fixture := setupPlanFixture(t)
	fixture.mux.HandleFunc("POST /plans/generate", func(w http.ResponseWriter, r *http.Request) {
		var req plans.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, plans.StrategyAvalanche, req.Strategy)
		fixture.writeJSON(t, w, jobs.Job{ID: "job-1", JobType: jobs.TypePlanGeneration, Status: jobs.StatusPending})
	})

	job, err := fixture.service.Generate(context.Background(), plans.Request{Strategy: plans.StrategyAvalanche})
	require.NoError(t, err)
	require.Equal(t, "job-1", job.ID)
	require.Equal(t, jobs.StatusPending, job.Status)
}

func TestGenerateWithoutJobIDFails(t *testing.T) {
	fixture := setupPlanFixture(t)
	fixture.mux.HandleFunc("POST /plans/generate", func(w http.ResponseWriter, r *http.Request) {
		fixture.writeJSON(t, w, map[string]string{"status": "pending"})
	})

	_, err := fixture.service.Generate(context.Background(), plans.Request{Strategy: plans.StrategySnowball})
	require.ErrorIs(t, err, clienterrors.ErrJobNotFound)
}

func TestGenerateAndWaitDecodesPlan(t *testing.T) {
	fixture := setupPlanFixture(t)
	var polls atomic.Int64

	fixture.mux.HandleFunc("POST /plans/generate", func(w http.ResponseWriter, r *http.Request) {
		fixture.writeJSON(t, w, jobs.Job{ID: "job-1", Status: jobs.StatusPending})
	})
	fixture.mux.HandleFunc("GET /jobs/job-1/status", func(w http.ResponseWriter, r *http.Request) {
		status := jobs.StatusProcessing
		if polls.Add(1) >= 2 {
			status = jobs.StatusCompleted
		}
		fixture.writeJSON(t, w, jobs.StatusInfo{ID: "job-1", Status: status})
	})
	fixture.mux.HandleFunc("GET /jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		fixture.writeJSON(t, w, jobs.Job{
			ID:     "job-1",
			Status: jobs.StatusCompleted,
			Result: json.RawMessage(`{"id":"plan-1","strategy":"avalanche","total_months":24,"debt_free_date":"2028-08-01"}`),
		})
	})

	plan, err := fixture.service.GenerateAndWait(context.Background(), plans.Request{Strategy: plans.StrategyAvalanche})
	require.NoError(t, err)
	require.Equal(t, "plan-1", plan.ID)
	require.Equal(t, 24, plan.TotalMonths)
	require.Equal(t, plans.StrategyAvalanche, plan.Strategy)
}

func TestGenerateAndWaitSurfacesJobFailure(t *testing.T) {
	fixture := setupPlanFixture(t)
	fixture.mux.HandleFunc("POST /plans/generate", func(w http.ResponseWriter, r *http.Request) {
		fixture.writeJSON(t, w, jobs.Job{ID: "job-1", Status: jobs.StatusPending})
	})
	fixture.mux.HandleFunc("GET /jobs/job-1/status", func(w http.ResponseWriter, r *http.Request) {
		fixture.writeJSON(t, w, jobs.StatusInfo{ID: "job-1", Status: jobs.StatusFailed, Error: "no active debts to plan"})
	})

	_, err := fixture.service.GenerateAndWait(context.Background(), plans.Request{Strategy: plans.StrategyAvalanche})
	require.ErrorIs(t, err, clienterrors.ErrJobFailed)
	require.Contains(t, err.Error(), "no active debts to plan")
}

func TestSimulateAndWaitDecodesSimulation(t *testing.T) {
	fixture := setupPlanFixture(t)
	fixture.mux.HandleFunc("POST /plans/simulate", func(w http.ResponseWriter, r *http.Request) {
		fixture.writeJSON(t, w, jobs.Job{ID: "job-2", Status: jobs.StatusPending})
	})
	fixture.mux.HandleFunc("GET /jobs/job-2/status", func(w http.ResponseWriter, r *http.Request) {
		fixture.writeJSON(t, w, jobs.StatusInfo{ID: "job-2", Status: jobs.StatusCompleted})
	})
	fixture.mux.HandleFunc("GET /jobs/job-2", func(w http.ResponseWriter, r *http.Request) {
		fixture.writeJSON(t, w, jobs.Job{
			ID:     "job-2",
			Status: jobs.StatusCompleted,
			Result: json.RawMessage(`{"plan":{"id":"plan-sim"},"months_difference":-6,"interest_savings":1250.50}`),
		})
	})

	sim, err := fixture.service.SimulateAndWait(context.Background(),
		plans.Request{Strategy: plans.StrategySnowball, ExtraMonthlyPayment: 200})
	require.NoError(t, err)
	require.Equal(t, "plan-sim", sim.Plan.ID)
	require.Equal(t, -6, sim.MonthsDifference)
	require.InDelta(t, 1250.50, sim.InterestSavings, 0.001)
}

func TestActiveAndSummary(t *testing.T) {
	fixture := setupPlanFixture(t)
	fixture.mux.HandleFunc("GET /plans/active", func(w http.ResponseWriter, r *http.Request) {
		fixture.writeJSON(t, w, plans.Plan{ID: "plan-1", Status: plans.StatusActive})
	})
	fixture.mux.HandleFunc("GET /plans/summary", func(w http.ResponseWriter, r *http.Request) {
		fixture.writeJSON(t, w, plans.Summary{TotalMonths: 30, OnTrack: true})
	})

	plan, err := fixture.service.Active(context.Background())
	require.NoError(t, err)
	require.Equal(t, plans.StatusActive, plan.Status)

	summary, err := fixture.service.Summary(context.Background())
	require.NoError(t, err)
	require.True(t, summary.OnTrack)
	require.Equal(t, 30, summary.TotalMonths)
}

func TestActivePlanNotFound(t *testing.T) {
	fixture := setupPlanFixture(t)
	fixture.mux.HandleFunc("GET /plans/active", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fixture.writeJSON(t, w, map[string]string{"detail": "No active plan"})
	})

	_, err := fixture.service.Active(context.Background())
	require.ErrorIs(t, err, clienterrors.ErrNotFound)
}
