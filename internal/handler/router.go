package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vendalocal/whatsapp-assistant/internal/config"
	"github.com/vendalocal/whatsapp-assistant/internal/model"
	"github.com/vendalocal/whatsapp-assistant/internal/session"
	"github.com/vendalocal/whatsapp-assistant/internal/transport"
	"github.com/vendalocal/whatsapp-assistant/internal/util"
	"github.com/vendalocal/whatsapp-assistant/internal/whatsapp"
)

// Menu and settings reply ids. The router matches on these when the user
// taps an option.
const (
	menuBrowseOffers   = "menu_offers"
	menuSearchProducts = "menu_search"
	menuMyAgreements   = "menu_agreements"
	menuSettings       = "menu_settings"

	settingLanguage = "setting_language"
	langPrefix      = "lang_"
	shopPrefix      = "shop_"
	backButtonID    = "go_back"
)

// Sender delivers an outbound payload. Satisfied by *transport.Client.
type Sender interface {
	Send(ctx context.Context, payload *whatsapp.Payload) transport.SendResult
}

// Router dispatches an inbound message against the session's current flow
// and step. It owns no session persistence of its own; every transition
// goes through the manager.
type Router struct {
	manager *session.Manager
	sender  Sender
	catalog *config.Catalog
	shops   []whatsapp.Row
}

func NewRouter(manager *session.Manager, sender Sender, catalog *config.Catalog, shops []whatsapp.Row) *Router {
	return &Router{
		manager: manager,
		sender:  sender,
		catalog: catalog,
		shops:   shops,
	}
}

// Dispatch routes one inbound message. wasReset signals that the session
// just expired and was returned to the main menu; the user is told why
// before seeing the menu again.
func (rt *Router) Dispatch(ctx context.Context, s *model.ConversationSession, msg *InboundMessage, wasReset bool) error {
	input := msg.TextBody()
	replyID := msg.ReplyID()

	if wasReset {
		rt.sendText(ctx, s, rt.msg(s, "session_expired"))
		return rt.showMainMenu(ctx, s)
	}

	if cmd := normalizeCommand(input); cmd != "" {
		switch cmd {
		case "menu":
			if err := rt.manager.ResetToMainMenu(ctx, s); err != nil {
				return err
			}
			return rt.showMainMenu(ctx, s)
		case "help":
			rt.sendText(ctx, s, rt.msg(s, "welcome")+rt.msg(s, "help_footer"))
			return nil
		}
	}

	// Pagination continuations are flow-agnostic: whichever list produced
	// them, the reply id carries the page to render next.
	if page, ok := whatsapp.ParsePaginationID(replyID); ok {
		return rt.showShopPage(ctx, s, page)
	}

	switch s.CurrentFlow {
	case model.FlowMainMenu:
		return rt.dispatchMainMenu(ctx, s, replyID)
	case model.FlowOfferBrowsing:
		return rt.dispatchOfferBrowsing(ctx, s, replyID)
	case model.FlowProductSearch:
		return rt.dispatchProductSearch(ctx, s, input, replyID)
	case model.FlowAgreementCreation:
		return rt.dispatchAgreement(ctx, s, input, replyID)
	case model.FlowSettings:
		return rt.dispatchSettings(ctx, s, replyID)
	default:
		return rt.fallback(ctx, s)
	}
}

func (rt *Router) dispatchMainMenu(ctx context.Context, s *model.ConversationSession, replyID string) error {
	switch replyID {
	case menuBrowseOffers:
		if err := rt.manager.StartFlow(ctx, s, model.FlowOfferBrowsing, nil); err != nil {
			return err
		}
		return rt.showShopPage(ctx, s, 1)
	case menuSearchProducts:
		if err := rt.manager.StartFlow(ctx, s, model.FlowProductSearch, nil); err != nil {
			return err
		}
		rt.sendText(ctx, s, rt.msg(s, "search_products")+rt.msg(s, "help_footer"))
		return nil
	case menuMyAgreements:
		if err := rt.manager.StartFlow(ctx, s, model.FlowAgreementCreation, nil); err != nil {
			return err
		}
		return rt.showShopPage(ctx, s, 1)
	case menuSettings:
		if err := rt.manager.StartFlow(ctx, s, model.FlowSettings, nil); err != nil {
			return err
		}
		return rt.showSettings(ctx, s)
	case "":
		// Free text while resting: greet and show the menu.
		return rt.showMainMenu(ctx, s)
	default:
		return rt.fallback(ctx, s)
	}
}

func (rt *Router) dispatchOfferBrowsing(ctx context.Context, s *model.ConversationSession, replyID string) error {
	if shopID, ok := strings.CutPrefix(replyID, shopPrefix); ok {
		if err := rt.manager.SetTemp(ctx, s, "shop_id", shopID); err != nil {
			return err
		}
		if err := rt.manager.SetFlowStep(ctx, s, model.FlowOfferBrowsing, model.StepViewOffer); err != nil {
			return err
		}
		rt.sendText(ctx, s, rt.shopTitle(shopID)+rt.msg(s, "help_footer"))
		return nil
	}
	return rt.fallback(ctx, s)
}

func (rt *Router) dispatchProductSearch(ctx context.Context, s *model.ConversationSession, input, replyID string) error {
	switch s.CurrentStep {
	case model.StepEnterQuery:
		if strings.TrimSpace(input) == "" {
			rt.sendText(ctx, s, rt.msg(s, "search_products"))
			return nil
		}
		if err := rt.manager.SetTemp(ctx, s, "query", strings.TrimSpace(input)); err != nil {
			return err
		}
		if err := rt.manager.SetFlowStep(ctx, s, model.FlowProductSearch, model.StepShowResults); err != nil {
			return err
		}
		return rt.showShopPage(ctx, s, 1)
	case model.StepShowResults:
		if shopID, ok := strings.CutPrefix(replyID, shopPrefix); ok {
			if err := rt.manager.MergeTemp(ctx, s, model.DataMap{"shop_id": shopID}); err != nil {
				return err
			}
			rt.sendText(ctx, s, rt.shopTitle(shopID)+rt.msg(s, "help_footer"))
			return nil
		}
		return rt.fallback(ctx, s)
	default:
		return rt.fallback(ctx, s)
	}
}

func (rt *Router) dispatchAgreement(ctx context.Context, s *model.ConversationSession, input, replyID string) error {
	switch s.CurrentStep {
	case model.StepSelectProduct:
		if shopID, ok := strings.CutPrefix(replyID, shopPrefix); ok {
			if err := rt.manager.SetTemp(ctx, s, "shop_id", shopID); err != nil {
				return err
			}
			if err := rt.manager.SetFlowStep(ctx, s, model.FlowAgreementCreation, model.StepCollectingAmount); err != nil {
				return err
			}
			rt.sendText(ctx, s, rt.msg(s, "ask_amount"))
			return nil
		}
		return rt.fallback(ctx, s)

	case model.StepCollectingAmount:
		amount, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil || amount <= 0 {
			rt.sendText(ctx, s, rt.msg(s, "ask_amount"))
			return nil
		}
		if err := rt.manager.SetTemp(ctx, s, "amount", amount); err != nil {
			return err
		}
		if err := rt.manager.SetFlowStep(ctx, s, model.FlowAgreementCreation, model.StepConfirmAgreement); err != nil {
			return err
		}
		payload, buildErr := whatsapp.NewButtons(s.Phone).
			Body(fmt.Sprintf("%s: $%d", rt.msg(s, "confirm"), amount)).
			ConfirmEditCancel(rt.msg(s, "confirm"), rt.msg(s, "edit"), rt.msg(s, "cancel")).
			Build()
		if buildErr != nil {
			return buildErr
		}
		rt.send(ctx, s, payload)
		return nil

	case model.StepConfirmAgreement:
		switch replyID {
		case whatsapp.ButtonIDConfirm:
			amount := rt.manager.GetTempInt(s, "amount")
			shopID := rt.manager.GetTempString(s, "shop_id")
			if err := rt.manager.SetContext(ctx, s, "last_agreement", model.DataMap{
				"shop_id": shopID,
				"amount":  amount,
			}); err != nil {
				return err
			}
			log.Info().
				Str("phone", util.MaskPhone(s.Phone)).
				Int("amount", amount).
				Msg("agreement confirmed")
			if err := rt.manager.ResetToMainMenu(ctx, s); err != nil {
				return err
			}
			return rt.showMainMenu(ctx, s)
		case whatsapp.ButtonIDEdit:
			if err := rt.manager.SetFlowStep(ctx, s, model.FlowAgreementCreation, model.StepCollectingAmount); err != nil {
				return err
			}
			rt.sendText(ctx, s, rt.msg(s, "ask_amount"))
			return nil
		case whatsapp.ButtonIDCancel:
			if err := rt.manager.ResetToMainMenu(ctx, s); err != nil {
				return err
			}
			return rt.showMainMenu(ctx, s)
		default:
			return rt.fallback(ctx, s)
		}

	default:
		return rt.fallback(ctx, s)
	}
}

func (rt *Router) dispatchSettings(ctx context.Context, s *model.ConversationSession, replyID string) error {
	switch s.CurrentStep {
	case model.StepChooseSetting:
		if replyID == settingLanguage {
			if err := rt.manager.SavePreviousStep(ctx, s); err != nil {
				return err
			}
			if err := rt.manager.SetFlowStep(ctx, s, model.FlowSettings, model.StepChangeLanguage); err != nil {
				return err
			}
			return rt.showLanguageChoice(ctx, s)
		}
		return rt.fallback(ctx, s)

	case model.StepChangeLanguage:
		if replyID == backButtonID {
			if err := rt.manager.GoBack(ctx, s); err != nil {
				return err
			}
			if s.CurrentFlow == model.FlowSettings {
				return rt.showSettings(ctx, s)
			}
			return rt.showMainMenu(ctx, s)
		}
		if lang, ok := strings.CutPrefix(replyID, langPrefix); ok {
			s.Language = lang
			if err := rt.manager.ResetToMainMenu(ctx, s); err != nil {
				return err
			}
			return rt.showMainMenu(ctx, s)
		}
		return rt.fallback(ctx, s)

	default:
		return rt.fallback(ctx, s)
	}
}

// fallback handles anything the current step has no answer for: back to
// the main menu with a gentle notice.
func (rt *Router) fallback(ctx context.Context, s *model.ConversationSession) error {
	rt.sendText(ctx, s, rt.msg(s, "unknown_option"))
	if err := rt.manager.ResetToMainMenu(ctx, s); err != nil {
		return err
	}
	return rt.showMainMenu(ctx, s)
}

// showMainMenu renders the four entry points as a list; four options do
// not fit a three-button menu.
func (rt *Router) showMainMenu(ctx context.Context, s *model.ConversationSession) error {
	payload, err := whatsapp.NewList(s.Phone).
		Header(rt.msg(s, "main_menu_title")).
		Body(rt.msg(s, "welcome")).
		ButtonLabel(rt.msg(s, "main_menu_title")).
		AddSection(rt.msg(s, "main_menu_title"),
			whatsapp.Row{ID: menuBrowseOffers, Title: rt.msg(s, "browse_offers")},
			whatsapp.Row{ID: menuSearchProducts, Title: rt.msg(s, "search_products")},
			whatsapp.Row{ID: menuMyAgreements, Title: rt.msg(s, "my_agreements")},
			whatsapp.Row{ID: menuSettings, Title: rt.msg(s, "settings")},
		).
		Build()
	if err != nil {
		return err
	}
	rt.send(ctx, s, payload)
	return nil
}

func (rt *Router) showSettings(ctx context.Context, s *model.ConversationSession) error {
	payload, err := whatsapp.NewButtons(s.Phone).
		Body(rt.msg(s, "choose_setting")).
		AddButton(settingLanguage, rt.msg(s, "change_language")).
		AddButton(backButtonID, rt.msg(s, "back")).
		Build()
	if err != nil {
		return err
	}
	rt.send(ctx, s, payload)
	return nil
}

func (rt *Router) showLanguageChoice(ctx context.Context, s *model.ConversationSession) error {
	payload, err := whatsapp.NewButtons(s.Phone).
		Body(rt.msg(s, "change_language")).
		AddButton(langPrefix+"es", "Español").
		AddButton(langPrefix+"en", "English").
		AddButton(backButtonID, rt.msg(s, "back")).
		Build()
	if err != nil {
		return err
	}
	rt.send(ctx, s, payload)
	return nil
}

// showShopPage renders one page of the shop directory, with a
// continuation row when more pages remain.
func (rt *Router) showShopPage(ctx context.Context, s *model.ConversationSession, page int) error {
	result := whatsapp.Paginate(
		rt.shops,
		page,
		rt.msg(s, "shops_list_title"),
		rt.msg(s, "more_items"),
		rt.msg(s, "page_footer"),
	)

	payload, err := whatsapp.NewList(s.Phone).
		Body(rt.msg(s, "shops_list_title")).
		ButtonLabel(rt.msg(s, "shops_list_button")).
		AddSectionFromPage(result).
		Build()
	if err != nil {
		return err
	}
	rt.send(ctx, s, payload)
	return nil
}

func (rt *Router) sendText(ctx context.Context, s *model.ConversationSession, body string) {
	payload, err := whatsapp.NewText(s.Phone).Body(body).Build()
	if err != nil {
		log.Error().Err(err).Msg("failed to build text payload")
		return
	}
	rt.send(ctx, s, payload)
}

// send delivers and logs. Delivery failures never roll back a transition
// that already happened; the session stays where flow logic put it.
func (rt *Router) send(ctx context.Context, s *model.ConversationSession, payload *whatsapp.Payload) {
	result := rt.sender.Send(ctx, payload)
	if !result.Success {
		log.Error().
			Err(result.Error).
			Str("phone", util.MaskPhone(s.Phone)).
			Msg("outbound delivery failed")
	}
}

func (rt *Router) msg(s *model.ConversationSession, key string) string {
	return rt.catalog.Message(s.Language, key)
}

func (rt *Router) shopTitle(shopID string) string {
	for _, row := range rt.shops {
		if strings.TrimPrefix(row.ID, shopPrefix) == shopID {
			return row.Title
		}
	}
	return shopID
}

// normalizeCommand maps the user's reserved words onto a command name.
func normalizeCommand(input string) string {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "menú", "menu", "inicio", "start":
		return "menu"
	case "ayuda", "help":
		return "help"
	default:
		return ""
	}
}
