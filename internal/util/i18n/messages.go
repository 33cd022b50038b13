package i18n

import "golang.org/x/text/language"

// Message keys used by the panel.
const (
	UnableRetrieveURL         = "unable_retrieve_url"
	DisplayNameDNDStatus      = "display_name_dnd_status"
	DisplayNameAvailable      = "display_name_available_status"
	LegalTextAndLinks         = "legal_text_and_links3"
	ClientShortnameFallback   = "client_shortname_fallback"
	LegalTextToS              = "legal_text_tos"
	LegalTextPrivacy          = "legal_text_privacy"
	SettingsMenuButtonTooltip = "settings_menu_button_tooltip"
	SettingsMenuItemSettings  = "settings_menu_item_settings"
	SettingsMenuItemAccount   = "settings_menu_item_account"
	SettingsMenuItemSignOut   = "settings_menu_item_signout"
	SettingsMenuItemSignIn    = "settings_menu_item_signin"
	ShareLinkHeaderText       = "share_link_header_text"
	ShareButton               = "share_button"
	CopyURLButton             = "copy_url_button"
	CopiedURLButton           = "copied_url_button"
	ShareEmailSubject         = "share_email_subject3"
	ShareEmailBody            = "share_email_body3"
	PanelFooterSignInOrSignUp = "panel_footer_signin_or_signup_link"
	DisplayNameGuest          = "display_name_guest"
	TabCall                   = "tab_call"
	TabContacts               = "tab_contacts"
	ContactsPlaceholder       = "contacts_placeholder"
	GeneratingURL             = "generating_url"
	ClipboardFailed           = "clipboard_failed"
	EmailFailed               = "email_failed"
	AvailabilityUpdateFailed  = "availability_update_failed"
	AuthFailed                = "auth_failed"
	SettingsLocation          = "settings_location"
	AccountSignedInAs         = "account_signed_in_as"
)

var english = map[string]string{
	UnableRetrieveURL:         "Sorry, we were unable to retrieve a call url.",
	DisplayNameDNDStatus:      "Do Not Disturb",
	DisplayNameAvailable:      "Available",
	LegalTextAndLinks:         "By using %[1]s you agree to the %[2]s and %[3]s.",
	ClientShortnameFallback:   "this product",
	LegalTextToS:              "Terms of Use",
	LegalTextPrivacy:          "Privacy Notice",
	SettingsMenuButtonTooltip: "Settings",
	SettingsMenuItemSettings:  "Settings",
	SettingsMenuItemAccount:   "Account",
	SettingsMenuItemSignOut:   "Sign Out",
	SettingsMenuItemSignIn:    "Sign In",
	ShareLinkHeaderText:       "Share this link to invite someone to talk:",
	ShareButton:               "Email",
	CopyURLButton:             "Copy",
	CopiedURLButton:           "Copied!",
	ShareEmailSubject:         "You have been invited to a conversation",
	ShareEmailBody:            "To accept this invitation, just copy or click this link to start your conversation:\n\n%[1]s",
	PanelFooterSignInOrSignUp: "Sign In or Sign Up",
	DisplayNameGuest:          "Guest",
	TabCall:                   "Call",
	TabContacts:               "Contacts",
	ContactsPlaceholder:       "Contacts are not available yet.",
	GeneratingURL:             "Generating link…",
	ClipboardFailed:           "Could not copy the link to the clipboard.",
	EmailFailed:               "Could not open the mail client.",
	AvailabilityUpdateFailed:  "Could not update your availability.",
	AuthFailed:                "Could not update the sign-in state.",
	SettingsLocation:          "Settings are stored in %[1]s",
	AccountSignedInAs:         "Signed in as %[1]s",
}

var bundled = map[language.Tag]map[string]string{
	language.English: english,
	language.French: {
		UnableRetrieveURL:         "Désolé, nous n'avons pas pu obtenir d'URL d'appel.",
		DisplayNameDNDStatus:      "Ne pas déranger",
		DisplayNameAvailable:      "Disponible",
		LegalTextAndLinks:         "En utilisant %[1]s, vous acceptez les %[2]s et la %[3]s.",
		LegalTextToS:              "Conditions d'utilisation",
		LegalTextPrivacy:          "Politique de confidentialité",
		SettingsMenuItemSettings:  "Paramètres",
		SettingsMenuItemAccount:   "Compte",
		SettingsMenuItemSignOut:   "Se déconnecter",
		SettingsMenuItemSignIn:    "Se connecter",
		ShareLinkHeaderText:       "Partagez ce lien pour inviter quelqu'un à discuter :",
		ShareButton:               "Courriel",
		CopyURLButton:             "Copier",
		CopiedURLButton:           "Copié !",
		PanelFooterSignInOrSignUp: "Se connecter ou s'inscrire",
		DisplayNameGuest:          "Invité",
		SettingsLocation:          "Les paramètres sont enregistrés dans %[1]s",
		AccountSignedInAs:         "Connecté en tant que %[1]s",
	},
}
