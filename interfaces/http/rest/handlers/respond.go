package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/pkg/common"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
	"github.com/whikwon/nexusnote/pkg/utils"
)

// base carries what every handler needs to answer a request
type base struct {
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

func (b base) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	if err := common.RespondJSON(w, status, data); err != nil {
		b.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// decode parses and validates a JSON body, answering the request on failure
func (b base) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.DecodeJSON(w, r, v); err != nil {
		b.errors.Handle(w, r, err)
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		b.errors.Handle(w, r, err)
		return false
	}
	return true
}

type idResponse struct {
	ID string `json:"id"`
}
