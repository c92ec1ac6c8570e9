package domain

import "math"

// ScoreParams parametriza el modelo de trader score.
type ScoreParams struct {
	// Z es el cuantil normal del intervalo de Wilson (1.96 → 95%).
	Z float64
	// ConfidenceK es el número de mercados resueltos con el que la confianza llega a 0.5.
	ConfidenceK float64

	ConsistencyWeight float64
	ROIWeight         float64
	EvidenceWeight    float64
}

// DefaultScoreParams devuelve los parámetros de producción.
func DefaultScoreParams() ScoreParams {
	return ScoreParams{
		Z:                 1.96,
		ConfidenceK:       10,
		ConsistencyWeight: 0.7,
		ROIWeight:         0.2,
		EvidenceWeight:    0.1,
	}
}

// normalized completa valores inválidos con los defaults y reescala los pesos para
// que sumen 1; así el score queda acotado en [0,1] con cualquier configuración.
func (p ScoreParams) normalized() ScoreParams {
	def := DefaultScoreParams()
	if !(p.Z > 0) {
		p.Z = def.Z
	}
	if !(p.ConfidenceK > 0) {
		p.ConfidenceK = def.ConfidenceK
	}
	// sin peso de evidencia una wallet con n ≥ 1 podría empatar en 0 con una sin
	// mercados resueltos
	if p.ConsistencyWeight < 0 || p.ROIWeight < 0 || !(p.EvidenceWeight > 0) {
		p.ConsistencyWeight, p.ROIWeight, p.EvidenceWeight = def.ConsistencyWeight, def.ROIWeight, def.EvidenceWeight
	}
	sum := p.ConsistencyWeight + p.ROIWeight + p.EvidenceWeight
	p.ConsistencyWeight /= sum
	p.ROIWeight /= sum
	p.EvidenceWeight /= sum
	return p
}

// WilsonLowerBound devuelve el extremo inferior del intervalo de Wilson para una
// proporción observada hitRate sobre n muestras. Para hitRate fijo crece con n:
// más evidencia con el mismo acierto nunca baja el resultado.
//
//	lb = (p + z²/2n − z·√(p(1−p)/n + z²/4n²)) / (1 + z²/n)
func WilsonLowerBound(hitRate float64, n int, z float64) float64 {
	if n <= 0 || math.IsNaN(hitRate) {
		return 0
	}
	p := math.Min(math.Max(hitRate, 0), 1)
	nf := float64(n)
	z2 := z * z

	center := p + z2/(2*nf)
	margin := z * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf))
	lb := (center - margin) / (1 + z2/nf)
	return math.Min(math.Max(lb, 0), 1)
}

// SampleConfidence devuelve n/(n+k): 0 sin muestras, tiende a 1 con muchas.
func SampleConfidence(n int, k float64) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n) / (float64(n) + k)
}

// ROIComponent mapea el ROI (−∞, ∞) a [0,1] con una tangente hiperbólica:
// ROI 0 → 0.5, pérdidas → hacia 0, ganancias → hacia 1.
func ROIComponent(roi float64) float64 {
	if math.IsNaN(roi) {
		roi = 0
	}
	return (1 + math.Tanh(roi)) / 2
}

// TraderScore calcula el score compuesto de una wallet, acotado en [0,1].
//
// Fórmula (n = mercados resueltos, c(n) = n/(n+k)):
//
//	score = wC·Wilson(hitRate, n) + wR·c(n)·(1+tanh(roi))/2 + wE·c(n)
//
// Propiedades:
//   - Wilson castiga muestras pequeñas: 1 acierto de 1 puntúa ~0.21, 40 de 50 ~0.67.
//   - El ROI entra acotado y multiplicado por la confianza: una sola apuesta grande
//     y afortunada no puede dominar el ranking.
//   - wE > 0 siempre (normalized lo exige), así el término de evidencia es > 0 para
//     n ≥ 1 y cualquier wallet con al menos un mercado resuelto supera a una sin
//     ninguno (que puntúa exactamente 0).
func TraderScore(s WalletSummary, params ScoreParams) float64 {
	n := s.ResolvedMarkets
	if n <= 0 {
		return 0
	}
	p := params.normalized()
	conf := SampleConfidence(n, p.ConfidenceK)

	score := p.ConsistencyWeight*WilsonLowerBound(s.HitRate, n, p.Z) +
		p.ROIWeight*conf*ROIComponent(s.ROI) +
		p.EvidenceWeight*conf

	if math.IsNaN(score) {
		return 0
	}
	return math.Min(math.Max(score, 0), 1)
}
