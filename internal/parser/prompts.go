package parser

import "strings"

const basePrompt = `You are a financial screenshot parser for banking and e-wallet apps.

Task:
- Extract ALL transactions visible in the attached screenshot.
- Output STRICT JSON only (no comments, no trailing commas, no extra text).
- Output a JSON array of objects.

Each object must have these fields:
- "date": string, ISO format "YYYY-MM-DD"
- "description": string (merchant, recipient or item description)
- "amount": number, the transaction amount as a positive decimal
- "target_account": string or null (recipient account or merchant, if shown)
- "payment_method": string or null (e.g. "QRIS", "Transfer", "Virtual Account")

Rules:
- In Indonesia, "Rp. 34.000" means 34000 rupiah; "Rp 12.500,50" means 12500.50.
- Skip failed or cancelled transactions.
- If the date has no year, assume the current year.
- Return ONLY valid raw JSON. Do NOT wrap the response in code fences.
- Output must begin with "[" and end with "]".`

// appHints carries per-app extraction guidance distilled from the layouts
// of the supported apps. Unknown apps get only the base prompt.
var appHints = map[string]string{
	"bca": `The screenshot is from BCA mobile banking.
BCA shows transfers with "TRSF E-BANKING" or "m-Transfer" labels, the
recipient account number, and amounts in "IDR" without thousands dots in
some views. Statement rows may abbreviate merchant names.`,

	"dana": `The screenshot is from the DANA e-wallet.
DANA shows the recipient name or merchant, amounts with an "Rp" prefix,
and a status line (Berhasil means success, Gagal means failed). Include
transfers, QR payments, top-ups and cashback.`,

	"gojek": `The screenshot is from Gojek / GoPay.
Gojek shows order types (GoRide, GoFood, GoPay transfer), the merchant or
driver, and amounts prefixed with "Rp". Delivery fees and item totals may
be listed separately; extract the order total.`,

	"ovo": `The screenshot is from the OVO e-wallet.
OVO shows "Pembayaran" for payments and "Transfer" for transfers, with
OVO Cash or OVO Points as the payment method and amounts prefixed "Rp".`,
}

// buildPrompt assembles the full prompt for a source app.
func buildPrompt(sourceApp string) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	if hint, ok := appHints[strings.ToLower(strings.TrimSpace(sourceApp))]; ok {
		b.WriteString("\n\n")
		b.WriteString(hint)
	}
	return b.String()
}
