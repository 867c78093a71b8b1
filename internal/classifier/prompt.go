package classifier

import (
	"strconv"
	"strings"
)

const promptTemplate = "You classify short bookkeeping messages from a small shop owner.\n\n" +
	"Return ONLY one JSON object with these fields:\n" +
	"- \"kind\": one of \"expense\", \"payment\", \"credit\", \"balance\", \"unrecognized\"\n" +
	"- \"amount\": number or null (never negative, no currency symbols)\n" +
	"- \"category\": string or null (the shop, person or concept, lower case)\n\n" +
	"Meaning:\n" +
	"- \"credit\": something bought on credit (fiado), owed to the category\n" +
	"- \"payment\": money paid back towards a credit\n" +
	"- \"expense\": a cash expense\n" +
	"- \"balance\": the user asks for a summary or how much is owed\n" +
	"- \"unrecognized\": anything else\n\n" +
	"Do NOT wrap the response in code fences.\n\n" +
	"Message:\n"

// BuildPrompt embeds the user text in the classification instructions.
func BuildPrompt(text string) string {
	return promptTemplate + strconv.Quote(strings.TrimSpace(text)) + "\n"
}
