package assistant

import (
	"strings"
	"time"
)

type Intent string

const (
	IntentSearch   Intent = "search"
	IntentGreeting Intent = "greeting"
	IntentStatus   Intent = "status"
	IntentTime     Intent = "time"
	IntentWeather  Intent = "weather"
	IntentName     Intent = "name"
	IntentThanks   Intent = "thanks"
	IntentFarewell Intent = "farewell"
	IntentUnknown  Intent = "unknown"
)

const timeLayout = "3:04:05 PM"

type rule struct {
	intent Intent
	match  func(text string) bool
}

// Order matters: the first matching rule wins.
var rules = []rule{
	{IntentSearch, func(t string) bool {
		return strings.Contains(t, "buy") && containsAny(t, "shoe", "sandal", "footwear")
	}},
	{IntentGreeting, func(t string) bool { return containsAny(t, "hello", "hi") }},
	{IntentStatus, func(t string) bool { return strings.Contains(t, "how are you") }},
	{IntentTime, func(t string) bool { return strings.Contains(t, "time") }},
	{IntentWeather, func(t string) bool { return strings.Contains(t, "weather") }},
	{IntentName, func(t string) bool { return strings.Contains(t, "name") }},
	{IntentThanks, func(t string) bool { return strings.Contains(t, "thank") }},
	{IntentFarewell, func(t string) bool { return containsAny(t, "bye", "goodbye") }},
}

var replies = map[Intent]string{
	IntentGreeting: "Hello! How can I help you today?",
	IntentStatus:   "I'm doing well, thank you for asking!",
	IntentWeather:  "I don't have access to real-time weather data, but I hope it's nice where you are!",
	IntentName:     "I'm Web Five, your virtual assistant!",
	IntentThanks:   "You're welcome! Is there anything else you'd like to know?",
	IntentFarewell: "Goodbye! Have a great day!",
	IntentUnknown:  "I'm not sure how to respond to that.",
}

// Classify matches on substrings, so "this" counts as a greeting.
func Classify(text string) Intent {
	text = NormalizeText(text)
	for _, r := range rules {
		if r.match(text) {
			return r.intent
		}
	}
	return IntentUnknown
}

// Reply returns the canned answer for intent. IntentSearch has none; it runs a sequence.
func Reply(intent Intent, now time.Time) string {
	if intent == IntentTime {
		return "The current time is " + now.Format(timeLayout) + "."
	}
	if reply, ok := replies[intent]; ok {
		return reply
	}
	return ""
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
