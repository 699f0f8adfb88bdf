package controller

import (
	"encoding/json"
	"fmt"

	"github.com/analogdevicesinc/automl-embedded/pkg/catalog"
	"github.com/analogdevicesinc/automl-embedded/pkg/state"
)

// MessageType is the "type" discriminator of the view protocol
type MessageType string

// Messages sent by the view
const (
	TypeBrowseDataset         MessageType = "browseDataset"
	TypeBrowseTargetModelPath MessageType = "browseTargetModelPath"
	TypeUpdateField           MessageType = "updateField"
	TypeGetField              MessageType = "getField"
	TypeRunAutoML             MessageType = "runAutoML"
)

// Messages sent to the view
const (
	TypeUpdateConfiguration MessageType = "updateConfiguration"
	TypeRestoreState        MessageType = "restoreState"
	TypeEnableButton        MessageType = "enableButton"
	TypeSetField            MessageType = "setField"
	TypeUpdatePlatforms     MessageType = "updatePlatforms"
	TypeUpdateOptimizers    MessageType = "updateOptimizers"
	TypeToggleSimulate      MessageType = "toggleSimulate"
)

// ElementID identifies a form element of the view
type ElementID string

const (
	ElementRunButton          ElementID = "run-automl-button"
	ElementDatasetPath        ElementID = "kenning-configuration-dataset-path"
	ElementDatasetButton      ElementID = "kenning-configuration-dataset-path-browse"
	ElementPlatform           ElementID = "kenning-configuration-platform"
	ElementTimeLimit          ElementID = "kenning-configuration-time-limit"
	ElementAppSize            ElementID = "kenning-configuration-app-size"
	ElementTargetPath         ElementID = "kenning-configuration-target-model-path"
	ElementTargetPathButton   ElementID = "kenning-configuration-target-model-path-browse"
	ElementOptimizer          ElementID = "kenning-configuration-optimizer"
	ElementSimulate           ElementID = "kenning-configuration-simulate"
)

// stringFields are the elements setField may address
var stringFields = map[ElementID]bool{
	ElementDatasetPath: true,
	ElementTimeLimit:   true,
	ElementTargetPath:  true,
}

// Inbound is a message sent by the view. The set of implementations is closed.
type Inbound interface {
	Type() MessageType
	inbound()
}

// Outbound is a message sent to the view. The set of implementations is closed.
type Outbound interface {
	Type() MessageType
	outbound()
}

// RunAutoMLState is the run form as submitted by the view
type RunAutoMLState struct {
	DatasetPath string `json:"datasetPath,omitempty" validate:"required"`
	Platform    string `json:"platform,omitempty" validate:"required"`
	Optimizer   string `json:"optimizer,omitempty" validate:"required"`
	TimeLimit   string `json:"timeLimit,omitempty" validate:"required"`
	// AppSize is optional; empty and nil both leave application_size unset
	AppSize  *string `json:"appSize,omitempty"`
	Simulate bool    `json:"simulate,omitempty"`
}

// WebviewState is the full form mirror pushed on restore
type WebviewState struct {
	RunAutoMLState
	TargetModelPath      string          `json:"targetModelPath,omitempty"`
	EnableButton         bool            `json:"enableButton"`
	SimulationsAvailable bool            `json:"simulationsAvailable"`
	OptimizerOptions     []catalog.Entry `json:"optimizerOptions,omitempty"`
}

type BrowseDataset struct{}

type BrowseTargetModelPath struct{}

// UpdateField stores a single form value
type UpdateField struct {
	Name  state.Key `json:"name"`
	Value any       `json:"value"`
}

// GetField asks for a stored value, answered with SetField
type GetField struct {
	ElementName ElementID `json:"elementName"`
	StorageName state.Key `json:"storageName"`
}

type RunAutoML struct {
	RunAutoMLState
}

type UpdateConfiguration struct{}

type RestoreState struct {
	WebviewState
}

type EnableButton struct{}

type SetField struct {
	ElementName ElementID `json:"elementName"`
	Value       string    `json:"value"`
}

type UpdatePlatforms struct {
	Platforms []catalog.Entry `json:"platforms"`
}

type UpdateOptimizers struct {
	Optimizers []catalog.Entry `json:"optimizers"`
}

type ToggleSimulate struct {
	Enable bool `json:"enable"`
}

func (BrowseDataset) Type() MessageType         { return TypeBrowseDataset }
func (BrowseTargetModelPath) Type() MessageType { return TypeBrowseTargetModelPath }
func (UpdateField) Type() MessageType           { return TypeUpdateField }
func (GetField) Type() MessageType              { return TypeGetField }
func (RunAutoML) Type() MessageType             { return TypeRunAutoML }

func (BrowseDataset) inbound()         {}
func (BrowseTargetModelPath) inbound() {}
func (UpdateField) inbound()           {}
func (GetField) inbound()              {}
func (RunAutoML) inbound()             {}

func (UpdateConfiguration) Type() MessageType { return TypeUpdateConfiguration }
func (RestoreState) Type() MessageType        { return TypeRestoreState }
func (EnableButton) Type() MessageType        { return TypeEnableButton }
func (SetField) Type() MessageType            { return TypeSetField }
func (UpdatePlatforms) Type() MessageType     { return TypeUpdatePlatforms }
func (UpdateOptimizers) Type() MessageType    { return TypeUpdateOptimizers }
func (ToggleSimulate) Type() MessageType      { return TypeToggleSimulate }

func (UpdateConfiguration) outbound() {}
func (RestoreState) outbound()        {}
func (EnableButton) outbound()        {}
func (SetField) outbound()            {}
func (UpdatePlatforms) outbound()     {}
func (UpdateOptimizers) outbound()    {}
func (ToggleSimulate) outbound()      {}

type typed interface {
	Type() MessageType
}

// Encode writes a message as a flat JSON object with its "type" member
func Encode(msg typed) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", msg.Type(), err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", msg.Type(), err)
	}
	fields["type"], _ = json.Marshal(msg.Type())

	return json.Marshal(fields)
}

func peekType(data []byte) (MessageType, error) {
	var envelope struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("failed to parse message: %w", err)
	}
	if envelope.Type == "" {
		return "", fmt.Errorf("message has no type")
	}
	return envelope.Type, nil
}

// DecodeInbound parses a message sent by the view
func DecodeInbound(data []byte) (Inbound, error) {
	t, err := peekType(data)
	if err != nil {
		return nil, err
	}

	switch t {
	case TypeBrowseDataset:
		return BrowseDataset{}, nil
	case TypeBrowseTargetModelPath:
		return BrowseTargetModelPath{}, nil
	case TypeUpdateField:
		return decodeAs[UpdateField](t, data)
	case TypeGetField:
		return decodeAs[GetField](t, data)
	case TypeRunAutoML:
		return decodeAs[RunAutoML](t, data)
	default:
		return nil, fmt.Errorf("unknown inbound message type %q", t)
	}
}

// DecodeOutbound parses a message sent to the view
func DecodeOutbound(data []byte) (Outbound, error) {
	t, err := peekType(data)
	if err != nil {
		return nil, err
	}

	switch t {
	case TypeUpdateConfiguration:
		return UpdateConfiguration{}, nil
	case TypeEnableButton:
		return EnableButton{}, nil
	case TypeRestoreState:
		return decodeAs[RestoreState](t, data)
	case TypeSetField:
		return decodeAs[SetField](t, data)
	case TypeUpdatePlatforms:
		return decodeAs[UpdatePlatforms](t, data)
	case TypeUpdateOptimizers:
		return decodeAs[UpdateOptimizers](t, data)
	case TypeToggleSimulate:
		return decodeAs[ToggleSimulate](t, data)
	default:
		return nil, fmt.Errorf("unknown outbound message type %q", t)
	}
}

func decodeAs[T any](t MessageType, data []byte) (T, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse %s message: %w", t, err)
	}
	return m, nil
}
