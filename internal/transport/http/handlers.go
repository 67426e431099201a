package http

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"halloween-trivia/internal/app"
)

// API serves the JSON endpoints of one trivia service.
type API struct {
	service *app.Service
}

func NewAPI(service *app.Service) *API {
	return &API{service: service}
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type loginRequest struct {
	Password string `json:"password"`
}

// action runs fn against the caller's game and answers with the resulting view.
func (a *API) action(fn func(ctx context.Context, g *app.Game, r *http.Request) (string, error)) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		g := a.service.Game(clientID(r))
		outcome, err := fn(r.Context(), g, r)
		resp := actionResponse{Outcome: outcome, View: g.View(r.Context())}
		if err != nil {
			resp.Error = publicMessage(err)
		}
		writeJSON(w, statusFor(err), resp)
	}
}

func (a *API) state(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	g := a.service.Game(clientID(r))
	writeJSON(w, http.StatusOK, g.View(r.Context()))
}

func (a *API) catalog(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, a.service.Catalog())
}

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rows, err := a.service.Leaderboard(r.Context(), clientID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func start(ctx context.Context, g *app.Game, r *http.Request) (string, error) {
	var req app.StartRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	return "", g.Start(ctx, req)
}

func answer(ctx context.Context, g *app.Game, r *http.Request) (string, error) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	outcome, err := g.Answer(ctx, req.Answer)
	return string(outcome), err
}

func hint(ctx context.Context, g *app.Game, _ *http.Request) (string, error) {
	outcome, err := g.Hint(ctx)
	return string(outcome), err
}

func restart(_ context.Context, g *app.Game, _ *http.Request) (string, error) {
	return "", g.Restart()
}

func openLeaderboard(ctx context.Context, g *app.Game, _ *http.Request) (string, error) {
	return "", g.OpenLeaderboard(ctx)
}

func closeLeaderboard(_ context.Context, g *app.Game, _ *http.Request) (string, error) {
	g.CloseLeaderboard()
	return "", nil
}

func openAdmin(ctx context.Context, g *app.Game, _ *http.Request) (string, error) {
	return "", g.OpenAdmin(ctx)
}

func closeAdmin(ctx context.Context, g *app.Game, _ *http.Request) (string, error) {
	g.CloseAdmin(ctx)
	return "", nil
}

func login(ctx context.Context, g *app.Game, r *http.Request) (string, error) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	return "", g.Login(ctx, req.Password)
}

func saveSettings(ctx context.Context, g *app.Game, r *http.Request) (string, error) {
	var form app.SettingsForm
	if err := decodeJSON(r, &form); err != nil {
		return "", err
	}
	return "", g.SaveSettings(ctx, form)
}
