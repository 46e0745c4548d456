package lists

type ListListsQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

type RetrieveListParams struct {
	Slug string `param:"slug" json:"slug" mod:"trim,lcase" validate:"required,slug"`
}
