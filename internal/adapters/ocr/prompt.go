package ocr

import (
	"fmt"
	"strings"
)

// languageNames maps the short codes accepted in config to the name used in
// the prompt. Unknown codes are passed through as-is.
var languageNames = map[string]string{
	"es":  "Spanish",
	"spa": "Spanish",
	"en":  "English",
	"eng": "English",
	"ca":  "Catalan",
	"fr":  "French",
	"pt":  "Portuguese",
	"it":  "Italian",
	"de":  "German",
}

// BuildPrompt returns the extraction prompt for receipts in the given language.
func BuildPrompt(language string) string {
	lang := strings.TrimSpace(language)
	if name, ok := languageNames[strings.ToLower(lang)]; ok {
		lang = name
	}
	if lang == "" {
		lang = "Spanish"
	}

	return fmt.Sprintf(`FIRST: look carefully at the image and decide whether it is a purchase receipt, invoice or till ticket.

If the image is NOT a receipt (a personal photo, a landscape, a different kind of document, a screenshot, general text, etc.), return ONLY this JSON:
{
  "is_ticket": false,
  "error_message": "The uploaded image looks like [WHAT THE IMAGE IS]. Please upload a photo of a purchase receipt or invoice.",
  "detected_content": "[short description of what is in the image]"
}

If the image IS a receipt, extract every line item (description, quantity and unit price) together with the subtotal, the tax (if printed) and the final total.
The main language of the receipt is %s. Write error_message in that language.
Return ONLY valid JSON with this structure:
{
  "is_ticket": true,
  "items": [
    {"description": "item name", "quantity": number, "unit_price": number}
  ],
  "subtotal": number_or_null,
  "tax": number_or_null,
  "total": number_or_null
}

IMPORTANT:
- All numeric values must be numbers, not strings
- Use a dot as the decimal separator
- If a quantity is not printed, use 1
- If the subtotal or tax cannot be read clearly, use null
- Do not add any text outside the JSON object
- Always include the "is_ticket" field`, lang)
}
