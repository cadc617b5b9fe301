package model

// Flow is a top-level conversation mode.
type Flow string

const (
	FlowMainMenu          Flow = "main_menu"
	FlowRegistration      Flow = "registration"
	FlowOfferBrowsing     Flow = "offer_browsing"
	FlowProductSearch     Flow = "product_search"
	FlowAgreementCreation Flow = "agreement_creation"
	FlowSettings          Flow = "settings"
)

// Step is a position within a flow's internal progression.
type Step string

const (
	// Resting steps; sessions sitting here are exempt from timeout resets.
	StepIdle     Step = "idle"
	StepShowMenu Step = "show_menu"
	StepMain     Step = "main"

	// Registration
	StepAskName     Step = "ask_name"
	StepAskLanguage Step = "ask_language"
	StepConfirmData Step = "confirm_data"

	// Offer browsing
	StepSelectCategory Step = "select_category"
	StepSelectShop     Step = "select_shop"
	StepViewOffer      Step = "view_offer"

	// Product search
	StepEnterQuery  Step = "enter_query"
	StepShowResults Step = "show_results"

	// Agreement creation
	StepSelectProduct    Step = "select_product"
	StepCollectingAmount Step = "collecting_amount"
	StepConfirmAgreement Step = "confirm_agreement"

	// Settings
	StepChooseSetting  Step = "choose_setting"
	StepChangeLanguage Step = "change_language"
)

// flowInitialSteps declares the entry step per flow. StartFlow transitions here.
var flowInitialSteps = map[Flow]Step{
	FlowMainMenu:          StepIdle,
	FlowRegistration:      StepAskName,
	FlowOfferBrowsing:     StepSelectCategory,
	FlowProductSearch:     StepEnterQuery,
	FlowAgreementCreation: StepSelectProduct,
	FlowSettings:          StepChooseSetting,
}

var idleSteps = map[Step]bool{
	StepIdle:     true,
	StepShowMenu: true,
	StepMain:     true,
}

// InitialStep returns the declared entry step of a flow, defaulting to idle.
func (f Flow) InitialStep() Step {
	if step, ok := flowInitialSteps[f]; ok {
		return step
	}
	return StepIdle
}

// IsIdle reports whether the step is one of the resting steps.
func (s Step) IsIdle() bool {
	return idleSteps[s]
}

// MessageType tags the kind of an inbound message.
type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypeInteractive MessageType = "interactive"
	MessageTypeImage       MessageType = "image"
	MessageTypeDocument    MessageType = "document"
	MessageTypeLocation    MessageType = "location"
	MessageTypeUnknown     MessageType = "unknown"
)
