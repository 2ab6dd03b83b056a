package ai

import "fmt"

// extractionPromptTemplate embeds the full target schema and demands bare
// JSON. The model is not trusted to obey; see response.go.
const extractionPromptTemplate = `Analyze this Indian GST bill and extract the following information in JSON format:
{
  "vendor_name": "",
  "vendor_gstin": "",
  "bill_number": "",
  "bill_date": "",
  "items": [
    {
      "description": "",
      "hsn_code": "",
      "quantity": 0,
      "rate": 0,
      "amount": 0
    }
  ],
  "subtotal": 0,
  "cgst_rate": 0,
  "cgst_amount": 0,
  "sgst_rate": 0,
  "sgst_amount": 0,
  "igst_rate": 0,
  "igst_amount": 0,
  "total_amount": 0
}

Return ONLY valid JSON, no markdown formatting.

OCR hints (may be inaccurate):
<<<%s>>>
`

const verificationPromptTemplate = `You are a strict financial auditor AI.

Given:
1) The original bill image
2) Extracted JSON below

Extracted data:
<<<%s>>>

Your job:
- Verify numerical consistency
- Check if total_amount = subtotal + cgst_amount + sgst_amount + igst_amount
- Ensure totals look visually plausible against the bill image
- Fix obvious mistakes
- If unsure, set fields to null or 0.

Return ONLY the corrected JSON (same schema, no explanations).`

const voicePromptTemplate = `Analyze this voice transcript for an accounting entry and extract the following information in JSON format:
{
  "entry_type": "income" | "expense",
  "amount": 0,
  "note": "Description of the transaction",
  "items": [
    {
      "name": "item name",
      "quantity": 1,
      "unit": "kg/pcs/etc",
      "price": 0
    }
  ]
}

Transcript: "%s"
`

func buildExtractionPrompt(ocrText string) string {
	return fmt.Sprintf(extractionPromptTemplate, ocrText)
}

func buildVerificationPrompt(extractedJSON string) string {
	return fmt.Sprintf(verificationPromptTemplate, extractedJSON)
}

func buildVoicePrompt(transcript string) string {
	return fmt.Sprintf(voicePromptTemplate, transcript)
}
