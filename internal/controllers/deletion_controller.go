package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/certistudy/deletion-service/internal/dtos"
	"github.com/certistudy/deletion-service/internal/services"
	"github.com/certistudy/deletion-service/internal/utils"
)

// Success copy shown to members. The request endpoint answers the app
// in plain text; the confirm endpoint answers a browser tab opened from
// the email link, so it gets an alert-and-close page.
const (
	requestAcceptedMessage = "If the details match an account, a confirmation email is on its way. The link inside is valid for 1 hour."
	confirmSuccessMessage  = "Your account has been deleted. We're sorry to see you go."
)

type DeletionController struct {
	deletionService services.DeletionService
}

func NewDeletionController(deletionService services.DeletionService) *DeletionController {
	return &DeletionController{deletionService: deletionService}
}

var deletionValidate = validator.New()

func (c *DeletionController) RequestDeletion(w http.ResponseWriter, r *http.Request) {
	var req dtos.RequestDeletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondPlainText(w, http.StatusBadRequest, "Invalid payload", err)
		return
	}
	if err := deletionValidate.Struct(req); err != nil {
		utils.RespondPlainText(w, http.StatusBadRequest, "Missing or malformed id or email", err)
		return
	}

	if err := c.deletionService.RequestDeletion(r.Context(), req.ID, req.Email); err != nil {
		appErr := utils.AsAppError(err)
		utils.RespondPlainText(w, appErr.StatusCode, appErr.Message, appErr.Err)
		return
	}

	utils.RespondPlainText(w, http.StatusOK, requestAcceptedMessage)
}

func (c *DeletionController) ConfirmDeletion(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	if err := c.deletionService.ConfirmDeletion(r.Context(), token); err != nil {
		appErr := utils.AsAppError(err)
		utils.RespondAlertHTML(w, appErr.StatusCode, appErr.Message, appErr.Err)
		return
	}

	utils.RespondAlertHTML(w, http.StatusOK, confirmSuccessMessage)
}
