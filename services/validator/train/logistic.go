// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package train fits feature weight sets from labeled responses with
// L2-regularized binary logistic regression.
package train

import (
	"errors"
	"math"
)

// LogisticRegression fits a binary logistic model by batch gradient descent.
//
// Description:
//
//	The loss is mean cross-entropy plus (L2/2n)·‖w‖²; the intercept is not
//	penalized. Feature counts are small integers, so plain batch descent
//	with a fixed learning rate converges quickly and, unlike stochastic
//	variants, is fully deterministic: the same rows always fit the same
//	coefficients.
type LogisticRegression struct {
	// L2 is the regularization strength (inverse of sklearn's C).
	L2 float64

	// LearningRate is the fixed descent step.
	LearningRate float64

	// MaxIter caps the descent iterations.
	MaxIter int

	// Tol stops the descent early when every gradient component is
	// smaller in magnitude.
	Tol float64
}

// NewLogisticRegression returns a model with the default hyperparameters.
func NewLogisticRegression() LogisticRegression {
	return LogisticRegression{
		L2:           1.0,
		LearningRate: 0.5,
		MaxIter:      5000,
		Tol:          1e-6,
	}
}

// Fit trains the model on design matrix x and labels y.
//
// Inputs:
//
//	x - One row per sample, one column per feature. All rows must have
//	    equal length.
//	y - Labels, len(y) == len(x).
//
// Outputs:
//
//	[]float64 - Fitted coefficients, one per column.
//	float64 - Fitted intercept.
//	error - Non-nil for an empty or ragged matrix.
func (m LogisticRegression) Fit(x [][]float64, y []bool) ([]float64, float64, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, 0, errors.New("empty or mismatched training data")
	}
	cols := len(x[0])
	for _, row := range x {
		if len(row) != cols {
			return nil, 0, errors.New("ragged design matrix")
		}
	}

	n := float64(len(x))
	w := make([]float64, cols)
	b := 0.0
	grad := make([]float64, cols)

	for iter := 0; iter < m.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0

		for i, row := range x {
			z := b
			for j, v := range row {
				z += w[j] * v
			}
			diff := sigmoid(z)
			if y[i] {
				diff -= 1
			}
			for j, v := range row {
				grad[j] += diff * v
			}
			gradB += diff
		}

		maxGrad := math.Abs(gradB / n)
		for j := range grad {
			grad[j] = grad[j]/n + m.L2*w[j]/n
			if g := math.Abs(grad[j]); g > maxGrad {
				maxGrad = g
			}
		}
		gradB /= n

		if maxGrad < m.Tol {
			break
		}
		for j := range w {
			w[j] -= m.LearningRate * grad[j]
		}
		b -= m.LearningRate * gradB
	}
	return w, b, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
