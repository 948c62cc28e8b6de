package ai

// regionContexts keys a short regulatory/context blurb by region code. The
// blurb is embedded into the rewrite prompt so the model grounds the
// "official" version in the right institutions and channels.
var regionContexts = map[string]string{
	"IN": "India: banks and payment apps (UPI, NPCI) never ask for OTPs, PINs or UPI PINs over SMS. Official senders use registered headers (e.g. AX-HDFCBK) and refer users to official apps or 1930 cyber-helpline.",
	"US": "United States: banks, the IRS and delivery services never request SSNs, full card numbers or gift-card payments by text. Official messages reference the sender's published domain and the FTC reporting channel.",
	"GB": "United Kingdom: banks and HMRC never ask for full passwords or PINs. Official guidance points to the 159 anti-fraud line and forwarding scam texts to 7726.",
	"EU": "European Union: PSD2-regulated institutions never request credentials over SMS. Official messages direct users to in-app confirmation and national consumer-protection hotlines.",
	"SG": "Singapore: banks follow MAS anti-scam rules, never send clickable links in SMS, and direct users to the ScamShield app and the 1799 helpline.",
	"AU": "Australia: banks and government agencies (myGov, ATO) never ask for personal details via text links and direct users to Scamwatch.",
}

// regionContext returns the blurb for code, falling back to the configured
// default region for unknown codes.
func regionContext(code, defaultRegion string) string {
	if ctx, ok := regionContexts[code]; ok {
		return ctx
	}
	return regionContexts[defaultRegion]
}
