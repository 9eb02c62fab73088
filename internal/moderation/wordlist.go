package moderation

// defaultTerms is the built-in disallowed wordlist, used when no wordlist
// file is configured. Matching is substring-based, so entries also catch
// common derived forms.
var defaultTerms = []string{
	"fuck",
	"shit",
	"bitch",
	"bastard",
	"asshole",
	"cunt",
	"dickhead",
	"motherfucker",
	"bullshit",
	"douchebag",
	"jackass",
	"piss off",
	"slut",
	"whore",
	"wanker",
	"twat",
	"prick",
}
