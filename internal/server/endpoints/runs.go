package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/toccata/internal/api"
	"github.com/jackzampolin/toccata/internal/store"
	"github.com/jackzampolin/toccata/internal/svcctx"
)

// RunsListResponse is the response for listing extraction runs.
type RunsListResponse struct {
	Runs []store.Run `json:"runs"`
}

// RunsListEndpoint handles GET /api/runs.
type RunsListEndpoint struct{}

func (e *RunsListEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/runs", e.handler
}

func (e *RunsListEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	List extraction runs
//	@Tags		runs
//	@Produce	json
//	@Param		limit	query		int	false	"Maximum number of runs to return"
//	@Success	200		{object}	RunsListResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/runs [get]
func (e *RunsListEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not available")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q", raw))
			return
		}
		limit = n
	}

	runs, err := st.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}

	writeJSON(w, http.StatusOK, RunsListResponse{Runs: runs})
}

func (e *RunsListEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List extraction runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/runs"
			if limit > 0 {
				path = fmt.Sprintf("%s?limit=%d", path, limit)
			}
			var resp RunsListResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			for _, run := range resp.Runs {
				fmt.Printf("%s  %-20s  %s\n", run.ID, run.Status, run.Source)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of runs to return")
	return cmd
}

// RunDetailResponse is the response for fetching a single run.
type RunDetailResponse struct {
	Run   store.Run    `json:"run"`
	Calls []store.Call `json:"calls"`
}

// RunGetEndpoint handles GET /api/runs/{id}.
type RunGetEndpoint struct{}

func (e *RunGetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/runs/{id}", e.handler
}

func (e *RunGetEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Get a single extraction run with its LLM call log
//	@Tags		runs
//	@Produce	json
//	@Param		id	path		string	true	"Run ID"
//	@Success	200	{object}	RunDetailResponse
//	@Failure	404	{object}	ErrorResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/api/runs/{id} [get]
func (e *RunGetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not available")
		return
	}

	id := r.PathValue("id")
	run, err := st.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", id))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	calls, err := st.ListCalls(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if calls == nil {
		calls = []store.Call{}
	}

	writeJSON(w, http.StatusOK, RunDetailResponse{Run: *run, Calls: calls})
}

func (e *RunGetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "run [run-id]",
		Short: "Get a single extraction run with its LLM call log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp RunDetailResponse
			if err := client.Get(cmd.Context(), "/api/runs/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
