package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/geo"
)

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}
	if err := decode(r, &body); err != nil || body.Username == "" || body.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	user, err := a.auth.Signup(r.Context(), body.Username, body.Password, body.Phone)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		DeviceID string `json:"deviceId"`
	}
	if err := decode(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "malformed body")
		return
	}
	token, err := a.auth.Login(r.Context(), body.Username, body.Password, body.DeviceID)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"token": token})
}

func (a *API) handleProvisionDevice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceID string `json:"deviceId"`
	}
	if err := decode(r, &body); err != nil || body.DeviceID == "" {
		respondError(w, http.StatusBadRequest, "deviceId is required")
		return
	}
	if err := a.auth.ProvisionDevice(r.Context(), callerID(r), body.DeviceID); err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (a *API) handleRedeemVoucher(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decode(r, &body); err != nil || body.Code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}
	points, err := a.auth.RedeemVoucher(r.Context(), callerID(r), body.Code)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]int{"points": points})
}

func (a *API) handleReportLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Location  geo.Point `json:"location"`
		DayOfWeek int       `json:"dayOfWeek"`
		Hour      *int      `json:"hour"`
	}
	if err := decode(r, &body); err != nil || len(body.Location.Coordinates) != 2 {
		respondError(w, http.StatusBadRequest, "a GeoJSON point is required")
		return
	}
	// hour 0 is valid (midnight), so absence is a nil pointer
	hour := -1
	if body.Hour != nil {
		hour = *body.Hour
	}
	loc, err := a.location.ReportLocation(r.Context(), callerID(r),
		body.Location, time.Now().UTC(), hour, body.DayOfWeek)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	if loc == nil {
		// ping dropped under a concurrent ingest
		respond(w, http.StatusAccepted, nil)
		return
	}
	respond(w, http.StatusCreated, loc)
}

func (a *API) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Location  geo.Point `json:"location"`
		Address   string    `json:"address"`
		Temporary bool      `json:"temporary"`
	}
	if err := decode(r, &body); err != nil || len(body.Location.Coordinates) != 2 {
		respondError(w, http.StatusBadRequest, "a GeoJSON point is required")
		return
	}
	address, err := a.address.CreateAddress(r.Context(), callerID(r),
		body.Location, body.Address, body.Temporary)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusCreated, address)
}

func (a *API) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed id")
		return
	}
	var body struct {
		Address  string     `json:"address"`
		Location *geo.Point `json:"location"`
	}
	if err := decode(r, &body); err != nil || body.Address == "" {
		respondError(w, http.StatusBadRequest, "address text is required")
		return
	}
	if body.Location != nil {
		a.respondDomainError(w, domain.ErrImmutableCoordinates)
		return
	}
	if err := a.address.UpdateAddress(r.Context(), callerID(r), id, body.Address); err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (a *API) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed id")
		return
	}
	if err := a.address.DeleteAddress(r.Context(), callerID(r), id); err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (a *API) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if len(req.Places) == 0 || len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "items and places are required")
		return
	}
	if req.Points <= 0 {
		respondError(w, http.StatusBadRequest, "points must be positive")
		return
	}
	created, err := a.request.CreateRequest(r.Context(), callerID(r), &req)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusCreated, created)
}

func (a *API) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed id")
		return
	}
	req, err := a.request.GetRequest(r.Context(), callerID(r), id)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, req)
}

func (a *API) handleAttachInvite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed id")
		return
	}
	var body struct {
		InviteID string `json:"inviteId"`
	}
	if err := decode(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "malformed body")
		return
	}
	inviteID, err := primitiveIDFromHex(body.InviteID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed inviteId")
		return
	}
	if err := a.request.AttachInvite(r.Context(), callerID(r), id, inviteID); err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (a *API) handleCompleteRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed id")
		return
	}
	if err := a.request.CompleteRequest(r.Context(), callerID(r), id); err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (a *API) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed id")
		return
	}
	if err := a.request.RequestCancellation(r.Context(), callerID(r), id); err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (a *API) handleRequestFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed id")
		return
	}
	rating, comment, ok := decodeFeedback(w, r)
	if !ok {
		return
	}
	if err := a.request.SubmitRequestFeedback(r.Context(), callerID(r), id, rating, comment); err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (a *API) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed id")
		return
	}
	if err := a.invite.AcceptInvite(r.Context(), callerID(r), id); err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (a *API) handleDeclineInvite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed id")
		return
	}
	if err := a.invite.DeclineInvite(r.Context(), callerID(r), id); err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (a *API) handleInviteFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed id")
		return
	}
	rating, comment, ok := decodeFeedback(w, r)
	if !ok {
		return
	}
	if err := a.invite.SubmitInviteFeedback(r.Context(), callerID(r), id, rating, comment); err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (a *API) handleListPublicInvites(w http.ResponseWriter, r *http.Request) {
	lon, err1 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	lat, err2 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err1 != nil || err2 != nil {
		respondError(w, http.StatusBadRequest, "lon and lat query params are required")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	pubs, err := a.invite.ListPublicInvites(r.Context(), geo.NewPoint(lon, lat), limit)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, pubs)
}

func (a *API) handleClaimPublicInvite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed id")
		return
	}
	if err := a.invite.ClaimPublicInvite(r.Context(), callerID(r), id); err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (a *API) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Target   string `json:"target"`
		TargetID string `json:"targetId"`
		Text     string `json:"text"`
	}
	if err := decode(r, &body); err != nil || body.Text == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	targetID, err := primitiveIDFromHex(body.TargetID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed targetId")
		return
	}
	comment, err := a.comment.AddComment(r.Context(), callerID(r), body.Target, targetID, body.Text)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusCreated, comment)
}

func (a *API) handleListComments(w http.ResponseWriter, r *http.Request) {
	targetID, err := primitiveIDFromHex(r.URL.Query().Get("targetId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed targetId")
		return
	}
	comments, err := a.comment.ListComments(r.Context(), r.URL.Query().Get("target"), targetID)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, comments)
}

func decodeFeedback(w http.ResponseWriter, r *http.Request) (int, string, bool) {
	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := decode(r, &body); err != nil || body.Rating < 1 || body.Rating > 5 {
		respondError(w, http.StatusBadRequest, "rating between 1 and 5 is required")
		return 0, "", false
	}
	return body.Rating, body.Comment, true
}
