package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ontoacademy/platform-api/internal/core/domain"
	"github.com/ontoacademy/platform-api/internal/core/ports"
)

type SyncHandler struct {
	syncService ports.SyncService
}

func NewSyncHandler(syncService ports.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// BatchSync applies a client's offline-accumulated mutations in one
// transaction and returns the per-category outcome including the
// localId→cloudId mapping.
func (h *SyncHandler) BatchSync(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req batchSyncRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validateCollections(req.Projects); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.syncService.BatchSync(c.Request().Context(), userID, toBatchInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// FullState returns the complete snapshot of the user's synced data for
// initial client hydration.
func (h *SyncHandler) FullState(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	state, err := h.syncService.FullState(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

func validateCollections(projects []syncProjectRequest) error {
	for _, p := range projects {
		if !domain.ValidCollection(p.Objects) {
			return fmt.Errorf("project %q: objects must be a JSON array of objects", p.Name)
		}
		if !domain.ValidCollection(p.Links) {
			return fmt.Errorf("project %q: links must be a JSON array of objects", p.Name)
		}
		if !domain.ValidCollection(p.Integrations) {
			return fmt.Errorf("project %q: integrations must be a JSON array of objects", p.Name)
		}
	}
	return nil
}

func toBatchInput(req batchSyncRequest) ports.BatchSyncInput {
	in := ports.BatchSyncInput{Preferences: req.Preferences}
	for _, p := range req.Projects {
		in.Projects = append(in.Projects, ports.ProjectSyncInput{
			ID:             p.ID,
			LocalID:        p.LocalID,
			Name:           p.Name,
			Industry:       p.Industry,
			UseCase:        p.UseCase,
			Status:         p.Status,
			Objects:        p.Objects,
			Links:          p.Links,
			Integrations:   p.Integrations,
			AIRequirements: p.AIRequirements,
		})
	}
	for _, b := range req.ChatMessages {
		batch := ports.ChatBatchInput{ProjectID: b.ProjectID}
		for _, m := range b.Messages {
			batch.Messages = append(batch.Messages, ports.ChatMessageInput{
				Role:     m.Role,
				Content:  m.Content,
				Metadata: m.Metadata,
			})
		}
		in.ChatMessages = append(in.ChatMessages, batch)
	}
	for _, a := range req.Archetypes {
		in.Archetypes = append(in.Archetypes, ports.ArchetypeSyncInput{
			ArchetypeID: a.ArchetypeID,
			Archetype:   a.Archetype,
			OriginType:  a.OriginType,
			OriginData:  a.OriginData,
		})
	}
	return in
}
