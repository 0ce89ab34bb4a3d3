package main

import (
	"foodgramApi/models"
	"sort"
)

func NewUserCreatedResponse(u *models.User) UserCreatedResponse {
	return UserCreatedResponse{
		Email:     u.Email,
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func NewUserResponse(u *models.User, subscribed bool) UserResponse {
	return UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func NewShortRecipeResponse(r *models.Recipe) ShortRecipeResponse {
	return ShortRecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}

// membershipSet returns the subset of recipeIds present in model for the user.
func membershipSet(model interface{}, userId uint, recipeIds []uint) (map[uint]bool, error) {
	set := map[uint]bool{}

	if len(recipeIds) == 0 {
		return set, nil
	}

	var ids []uint

	tx := DatabaseConnection.Model(model).Where("user_id = ? AND recipe_id IN ?", userId, recipeIds).Pluck("recipe_id", &ids)

	if tx.Error != nil {
		return nil, tx.Error
	}

	for _, id := range ids {
		set[id] = true
	}

	return set, nil
}

// subscribedSet returns the subset of authorIds the viewer follows.
func subscribedSet(viewer *models.User, authorIds []uint) (map[uint]bool, error) {
	set := map[uint]bool{}

	if viewer == nil || len(authorIds) == 0 {
		return set, nil
	}

	var ids []uint

	tx := DatabaseConnection.Model(&models.Follow{}).Where("user_id = ? AND author_id IN ?", viewer.ID, authorIds).Pluck("author_id", &ids)

	if tx.Error != nil {
		return nil, tx.Error
	}

	for _, id := range ids {
		set[id] = true
	}

	return set, nil
}

func NewUserResponses(viewer *models.User, users []models.User) ([]UserResponse, error) {
	ids := make([]uint, len(users))

	for i := range users {
		ids[i] = users[i].ID
	}

	subscribed, err := subscribedSet(viewer, ids)

	if err != nil {
		return nil, err
	}

	responses := make([]UserResponse, len(users))

	for i := range users {
		responses[i] = NewUserResponse(&users[i], subscribed[users[i].ID])
	}

	return responses, nil
}

// NewRecipeResponses expects recipes loaded with recipePreloads.
func NewRecipeResponses(viewer *models.User, recipes []models.Recipe) ([]RecipeResponse, error) {
	recipeIds := make([]uint, len(recipes))
	authorIds := make([]uint, len(recipes))

	for i := range recipes {
		recipeIds[i] = recipes[i].ID
		authorIds[i] = recipes[i].AuthorID
	}

	favorited := map[uint]bool{}
	inCart := map[uint]bool{}

	if viewer != nil {
		var err error

		if favorited, err = membershipSet(&models.Favorite{}, viewer.ID, recipeIds); err != nil {
			return nil, err
		}

		if inCart, err = membershipSet(&models.Cart{}, viewer.ID, recipeIds); err != nil {
			return nil, err
		}
	}

	subscribed, err := subscribedSet(viewer, authorIds)

	if err != nil {
		return nil, err
	}

	responses := make([]RecipeResponse, len(recipes))

	for i := range recipes {
		r := &recipes[i]

		tags := append([]models.Tag{}, r.Tags...)
		sort.Slice(tags, func(a, b int) bool { return tags[a].ID > tags[b].ID })

		lines := append([]models.RecipeIngredient{}, r.Ingredients...)
		sort.Slice(lines, func(a, b int) bool { return lines[a].ID < lines[b].ID })

		ingredients := make([]RecipeIngredientResponse, 0, len(lines))

		for _, ri := range lines {
			if ri.Ingredient == nil {
				continue
			}

			ingredients = append(ingredients, RecipeIngredientResponse{
				ID:              ri.Ingredient.ID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			})
		}

		var author UserResponse

		if r.Author != nil {
			author = NewUserResponse(r.Author, subscribed[r.AuthorID])
		}

		responses[i] = RecipeResponse{
			ID:               r.ID,
			Tags:             tags,
			Author:           author,
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}

	return responses, nil
}

func NewRecipeResponse(viewer *models.User, recipe *models.Recipe) (*RecipeResponse, error) {
	responses, err := NewRecipeResponses(viewer, []models.Recipe{*recipe})

	if err != nil {
		return nil, err
	}

	return &responses[0], nil
}
