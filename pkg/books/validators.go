package books

type RetrieveBookParams struct {
	ID int `param:"id" json:"id" validate:"min=1"`
}

type ListAuthorsQuery struct {
	Letter string `query:"letter" json:"letter,omitempty" mod:"trim,ucase" validate:"omitempty,letter"`
}
