package domain

func intPtr(v int) *int { return &v }

func okko(id int) Criterion {
	return Criterion{ID: id, Name: "c", Weight: 1, Kind: KindRating, EvaluationType: EvaluationOKKO}
}

func scale(id int) Criterion {
	return Criterion{ID: id, Name: "c", Weight: 1, Kind: KindRating, EvaluationType: EvaluationScale}
}

func scored(id int, evalType EvaluationType, value int) AuditScore {
	row := NewAuditScore("a1", id, evalType)
	score, err := NewScore(evalType, &value)
	if err != nil {
		panic(err)
	}
	return row.WithScore(evalType, score)
}
