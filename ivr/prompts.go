package ivr

const (
	welcomePrompt  = "Welcome to the InspireWorks IVR Demo. For English, press 1. Para español, oprima 2."
	languageRetry  = "Invalid option. For English press 1. Para español oprima 2."
	noInputGoodbye = "No input received. Goodbye."
	retryGoodbye   = "Goodbye."
)

type texts struct {
	topicMenu  string
	topicRetry string
	playing    string
	farewell   string
	connecting string
}

var catalog = map[Lang]texts{
	English: {
		topicMenu:  "You selected English. Press 1 to hear a short audio message. Press 2 to connect to an associate.",
		topicRetry: "Invalid option. Press 1 to hear a message, or press 2 to speak to an associate.",
		playing:    "Playing message...",
		farewell:   "Goodbye.",
		connecting: "Connecting you to an associate.",
	},
	Spanish: {
		topicMenu:  "Has elegido español. Presione 1 para escuchar un breve mensaje. Presione 2 para ser conectado con un asociado.",
		topicRetry: "Opción inválida. Presione 1 para escuchar un mensaje o presione 2 para hablar con un asociado.",
		playing:    "Reproduciendo mensaje...",
		farewell:   "Adiós.",
		connecting: "Conectando con un asociado.",
	},
}

func textsFor(lang Lang) texts {
	if t, ok := catalog[lang]; ok {
		return t
	}
	return catalog[English]
}
