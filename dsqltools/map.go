package dsqltools

func Map[T any, Y any](input []T, x func(T) Y) []Y {
	result := []Y{}
	for _, i := range input {
		result = append(result, x(i))
	}

	return result
}

func MapErr[T any, Y any](input []T, x func(T) (Y, error)) ([]Y, error) {
	result := []Y{}
	for _, i := range input {
		y, err := x(i)
		if err != nil {
			return nil, err
		}

		result = append(result, y)
	}

	return result, nil
}
