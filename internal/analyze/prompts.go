// Package analyze refines item scores through an external reasoning
// service, with defensive parsing of the free-text responses.
package analyze

import (
	"fmt"

	"github.com/newswatch/newswatch/internal/feeds"
)

// systemPrompt frames the model as a news analyst.
const systemPrompt = "Du bist ein Experte für politische Nachrichtenanalyse."

// relevancePrompt asks for a 1-10 relevance score in a fixed key:value
// format. The band definitions keep scores comparable across items.
func relevancePrompt(item *feeds.Item) string {
	return fmt.Sprintf(`Bewerte diesen Nachrichtenartikel auf einer Skala von 1-10 nach politischer Relevanz und gesellschaftlicher Wichtigkeit:

Titel: %s
Beschreibung: %s
Quelle: %s

Bewertungskriterien:
- 1-3: Lokale/unwichtige Nachrichten
- 4-6: Regionale/moderate Wichtigkeit
- 7-8: National/international wichtig
- 9-10: Historisch bedeutsam/gesellschaftsprägend

Antworte in folgendem Format:
Score: [Zahl von 1-10]
Begründung: [Kurze Erklärung in 1-2 Sätzen]
`, item.Title, item.Description, item.Source)
}

// impactPrompt asks for the expected market reaction in a fixed
// key:value format.
func impactPrompt(item *feeds.Item) string {
	return fmt.Sprintf(`Analysiere diese Nachricht auf ihre Auswirkungen auf den Aktienmarkt:

Titel: %s
Beschreibung: %s
Quelle: %s

Bewerte:
1. Marktauswirkung (1-10): Wie stark wird der Aktienmarkt reagieren?
2. Richtung: Wird der Markt steigen (UP), fallen (DOWN) oder neutral bleiben (NEUTRAL)?
3. Betroffene Aktien/Sektoren: Welche spezifischen Unternehmen oder Branchen sind betroffen?

Bewertungskriterien für Marktauswirkung:
- 1-2: Keine Marktauswirkung
- 3-4: Minimale Sektorauswirkung
- 5-6: Moderate Sektorauswirkung
- 7-8: Bedeutende Marktauswirkung
- 9-10: Massive Marktbewegung erwartet

Antworte in folgendem Format:
StockScore: [Zahl von 1-10]
Direction: [UP/DOWN/NEUTRAL]
Stocks: [Kommagetrennte Liste: z.B. "AAPL, TSLA, Technologie-Sektor"]
StockReasoning: [Kurze Erklärung der Marktauswirkung]
`, item.Title, item.Description, item.Source)
}
