package server

import (
	"net/http"

	"github.com/groblegark/configstore/internal/model"
)

// ModelsResponse is the body of GET /v1/models.
type ModelsResponse struct {
	Models []model.ModelInfo `json:"models"`
}

func (s *ConfigServer) listModels() ModelsResponse {
	models := s.registry.Models()
	resp := ModelsResponse{Models: make([]model.ModelInfo, 0, len(models))}
	for _, m := range models {
		resp.Models = append(resp.Models, m.Info())
	}
	return resp
}

// handleListModels handles GET /v1/models.
func (s *ConfigServer) handleListModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.listModels())
}
