package http

import (
	"net/http"
	"strconv"

	"hisobchi/internal/core"
)

type balanceDTO struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Currency string `json:"currency"`
	Amount   int64  `json:"amount_cents"`
	Display  string `json:"display"`
	Emoji    string `json:"emoji,omitempty"`
	Color    string `json:"color,omitempty"`
}

func toBalanceDTO(b core.PersonalBalance) balanceDTO {
	return balanceDTO{
		ID:       b.ID,
		Title:    b.Title,
		Currency: string(b.Currency),
		Amount:   b.Amount.Cents,
		Display:  b.Amount.Format(b.Currency),
		Emoji:    b.Emoji,
		Color:    b.Color,
	}
}

type selectionDTO struct {
	Kind      string `json:"kind"`
	ProjectID int64  `json:"project_id,omitempty"`
	BalanceID int64  `json:"balance_id,omitempty"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	user, err := s.storage.GetUser(r.Context(), tgUser.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	balances, err := s.storage.ListBalances(r.Context(), tgUser.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	projects, err := s.storage.ListProjects(r.Context(), tgUser.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	balanceDTOs := make([]balanceDTO, 0, len(balances))
	for _, b := range balances {
		balanceDTOs = append(balanceDTOs, toBalanceDTO(b))
	}
	projectDTOs := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		projectDTOs = append(projectDTOs, map[string]any{"id": p.ID, "name": p.Name})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       user.TelegramID,
		"username": user.Username,
		"selection": selectionDTO{
			Kind:      string(user.Selection.Kind),
			ProjectID: user.Selection.ProjectID,
			BalanceID: user.Selection.BalanceID,
		},
		"balances": balanceDTOs,
		"projects": projectDTOs,
	})
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	var body selectionDTO
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sel := core.UserSelection{
		Kind:      core.SelectionKind(body.Kind),
		ProjectID: body.ProjectID,
		BalanceID: body.BalanceID,
	}
	if err := s.storage.SetSelection(r.Context(), tgUser.ID, sel); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListBalances(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())
	balances, err := s.storage.ListBalances(r.Context(), tgUser.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]balanceDTO, 0, len(balances))
	for _, b := range balances {
		out = append(out, toBalanceDTO(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBalance(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	var body struct {
		Title    string `json:"title"`
		Currency string `json:"currency"`
		Amount   string `json:"amount"`
		Emoji    string `json:"emoji"`
		Color    string `json:"color"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	title := sanitizeInput(body.Title)
	if title == "" {
		writeError(w, http.StatusUnprocessableEntity, "title is required")
		return
	}
	currency := core.Currency(body.Currency)
	if body.Currency == "" {
		currency = core.UZS
	}
	if !currency.Valid() {
		writeDomainError(w, core.ErrInvalidCurrency)
		return
	}

	amount := core.Money{}
	if body.Amount != "" {
		var err error
		amount, err = core.ParseAmount(body.Amount)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	b, err := s.storage.CreateBalance(r.Context(), core.PersonalBalance{
		UserID:   tgUser.ID,
		Title:    title,
		Currency: currency,
		Amount:   amount,
		Emoji:    body.Emoji,
		Color:    body.Color,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBalanceDTO(b))
}

func (s *Server) handleDeleteBalance(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid balance id")
		return
	}
	if err := s.storage.DeleteBalance(r.Context(), tgUser.ID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())
	projects, err := s.storage.ListProjects(r.Context(), tgUser.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		out = append(out, map[string]any{"id": p.ID, "name": p.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := sanitizeInput(body.Name)
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	p, err := s.storage.CreateProject(r.Context(), tgUser.ID, name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": p.ID, "name": p.Name})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	if err := s.storage.DeleteProject(r.Context(), tgUser.ID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())

	var body struct {
		Name  string `json:"name"`
		Kind  string `json:"kind"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := sanitizeInput(body.Name)
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	kind := core.TransactionKind(body.Kind)
	if !kind.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "kind must be income or expense")
		return
	}

	c, err := s.storage.CreateCategory(r.Context(), core.Category{
		UserID: tgUser.ID,
		Name:   name,
		Kind:   kind,
		Icon:   body.Icon,
		Color:  body.Color,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":   c.ID,
		"name": c.Name,
		"kind": string(c.Kind),
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	tgUser := userFrom(r.Context())
	categories, err := s.storage.ListCategories(r.Context(), tgUser.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(categories))
	for _, c := range categories {
		out = append(out, map[string]any{
			"id":         c.ID,
			"name":       c.Name,
			"kind":       string(c.Kind),
			"icon":       c.Icon,
			"is_default": c.IsDefault,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
