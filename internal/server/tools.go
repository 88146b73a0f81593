// internal/server/tools.go
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"nutrition-meter/internal/models"
)

var (
	errUnknownTool   = errors.New("unknown tool")
	errInvalidParams = errors.New("invalid parameters")
)

const defaultHistoryLimit = 50

type tool struct {
	description string
	mutates     bool
	handle      func(*protocol.CallToolRequest) (interface{}, error)
}

// toolOrder fixes the listing order of registered tools.
var toolOrder = []string{
	"get_state",
	"set_input",
	"add_item",
	"edit_item",
	"update_item",
	"cancel_edit",
	"delete_item",
	"change_quantity",
	"clear_items",
	"set_user_metric",
	"compute_recommendation",
	"open_drawer",
	"close_drawer",
	"get_history",
}

// textValue is form text. JSON numbers are accepted and kept as written.
type textValue string

func (v *textValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = textValue(s)
		return nil
	}
	if string(data) == "null" {
		*v = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*v = textValue(n.String())
	return nil
}

type InputParams struct {
	Name     *textValue `json:"name,omitempty" description:"Food name"`
	Calories *textValue `json:"calories,omitempty" description:"Calories per unit"`
	Protein  *textValue `json:"protein,omitempty" description:"Protein per unit (g)"`
	Carbs    *textValue `json:"carbs,omitempty" description:"Carbohydrates per unit (g)"`
	Fat      *textValue `json:"fat,omitempty" description:"Fat per unit (g)"`
}

type ItemParams struct {
	ID int64 `json:"id" description:"Food item id"`
}

type ChangeQuantityParams struct {
	ID    int64 `json:"id" description:"Food item id"`
	Delta int   `json:"delta" description:"Amount to add to the quantity; the result never drops below 1"`
}

type SetUserMetricParams struct {
	Field string    `json:"field" description:"age, height, weight, gender or activityLevel"`
	Value textValue `json:"value" description:"Value as entered"`
}

type GetHistoryParams struct {
	Limit int `json:"limit,omitempty" description:"Maximum number of actions to return"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	return nil
}

// applyInput copies the provided fields into the session's input buffer.
func (s *TrackerServer) applyInput(req *protocol.CallToolRequest) error {
	var params InputParams
	if err := extractParams(req, &params); err != nil {
		return err
	}

	fields := []struct {
		name  string
		value *textValue
	}{
		{"name", params.Name},
		{"calories", params.Calories},
		{"protein", params.Protein},
		{"carbs", params.Carbs},
		{"fat", params.Fat},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := s.session.SetInputField(f.name, string(*f.value)); err != nil {
			return err
		}
	}
	return nil
}

func (s *TrackerServer) handleGetState(*protocol.CallToolRequest) (interface{}, error) {
	return s.session.View(), nil
}

func (s *TrackerServer) handleSetInput(req *protocol.CallToolRequest) (interface{}, error) {
	if err := s.applyInput(req); err != nil {
		return nil, err
	}
	return s.session.View(), nil
}

// handleAddItem submits the input buffer, after applying any fields given
// in the call, as a new item.
func (s *TrackerServer) handleAddItem(req *protocol.CallToolRequest) (interface{}, error) {
	if err := s.applyInput(req); err != nil {
		return nil, err
	}
	if _, err := s.session.Add(); err != nil {
		return nil, err
	}
	return s.session.View(), nil
}

func (s *TrackerServer) handleEditItem(req *protocol.CallToolRequest) (interface{}, error) {
	var params ItemParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	s.session.StartEdit(params.ID)
	return s.session.View(), nil
}

func (s *TrackerServer) handleUpdateItem(req *protocol.CallToolRequest) (interface{}, error) {
	if err := s.applyInput(req); err != nil {
		return nil, err
	}
	if err := s.session.Update(); err != nil {
		return nil, err
	}
	return s.session.View(), nil
}

func (s *TrackerServer) handleCancelEdit(*protocol.CallToolRequest) (interface{}, error) {
	s.session.CancelEdit()
	return s.session.View(), nil
}

func (s *TrackerServer) handleDeleteItem(req *protocol.CallToolRequest) (interface{}, error) {
	var params ItemParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	s.session.Delete(params.ID)
	return s.session.View(), nil
}

func (s *TrackerServer) handleChangeQuantity(req *protocol.CallToolRequest) (interface{}, error) {
	var params ChangeQuantityParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	s.session.ChangeQuantity(params.ID, params.Delta)
	return s.session.View(), nil
}

func (s *TrackerServer) handleClearItems(*protocol.CallToolRequest) (interface{}, error) {
	s.session.Clear()
	return s.session.View(), nil
}

func (s *TrackerServer) handleSetUserMetric(req *protocol.CallToolRequest) (interface{}, error) {
	var params SetUserMetricParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Field) == "" {
		return nil, fmt.Errorf("%w: field is required", errInvalidParams)
	}
	if err := s.session.SetUserMetricField(params.Field, string(params.Value)); err != nil {
		return nil, err
	}
	return s.session.View(), nil
}

func (s *TrackerServer) handleComputeRecommendation(*protocol.CallToolRequest) (interface{}, error) {
	s.session.ComputeRecommendation()
	return s.session.View(), nil
}

func (s *TrackerServer) handleOpenDrawer(*protocol.CallToolRequest) (interface{}, error) {
	s.session.OpenDrawer()
	return s.session.View(), nil
}

func (s *TrackerServer) handleCloseDrawer(*protocol.CallToolRequest) (interface{}, error) {
	s.session.CloseDrawer()
	return s.session.View(), nil
}

func (s *TrackerServer) handleGetHistory(req *protocol.CallToolRequest) (interface{}, error) {
	var params GetHistoryParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.Limit <= 0 {
		params.Limit = defaultHistoryLimit
	}

	actions, err := s.storage.GetActions(s.sessionID, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve history: %w", err)
	}
	if actions == nil {
		actions = []*models.ActionEntry{}
	}
	return actions, nil
}

func (s *TrackerServer) registerTools() {
	s.tools = map[string]tool{
		"get_state":              {"Current form state, totals and recommendation", false, s.handleGetState},
		"set_input":              {"Set fields of the input buffer", true, s.handleSetInput},
		"add_item":               {"Add the input buffer as a new food item", true, s.handleAddItem},
		"edit_item":              {"Load an item into the input buffer for editing", true, s.handleEditItem},
		"update_item":            {"Write the input buffer over the item being edited", true, s.handleUpdateItem},
		"cancel_edit":            {"Leave edit mode and clear the input buffer", true, s.handleCancelEdit},
		"delete_item":            {"Remove a food item", true, s.handleDeleteItem},
		"change_quantity":        {"Change the quantity of a food item", true, s.handleChangeQuantity},
		"clear_items":            {"Remove all food items", true, s.handleClearItems},
		"set_user_metric":        {"Set one body metric", true, s.handleSetUserMetric},
		"compute_recommendation": {"Compute daily calorie and macro targets", true, s.handleComputeRecommendation},
		"open_drawer":            {"Open the user details drawer", true, s.handleOpenDrawer},
		"close_drawer":           {"Close the user details drawer", true, s.handleCloseDrawer},
		"get_history":            {"Actions dispatched in this session", false, s.handleGetHistory},
	}

	for _, name := range toolOrder {
		s.log.Debug("registered tool", "tool", name)
	}
}
