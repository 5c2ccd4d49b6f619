package exprlang

// JointExpr is the parsed form of one joint expression, mirroring
// joint.VPoint's constructor arguments field for field.
type JointExpr struct {
	Type  string   `KwJOpen @(KwRP | KwR | KwP)`
	Angle *float64 `( Comma KwAOpen @Number RBracket )?`
	Color *string  `( Comma KwColorOpen @Ident RBracket )?`
	X     float64  `Comma KwPOpen @Number`
	Y     float64  `Comma @Number RBracket`
	Links []string `Comma KwLOpen ( @Ident ( Comma @Ident )* )? RBracket RBracket`
}
