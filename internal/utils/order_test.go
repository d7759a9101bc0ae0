package utils

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsTestSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestCalculateMaxQuantity() {
	tests := []struct {
		name        string
		balance     float64
		price       float64
		feeRate     float64
		expectedQty float64
	}{
		{
			name:        "Simple case with no commission",
			balance:     1000.0,
			price:       100.0,
			feeRate:     0,
			expectedQty: 10,
		},
		{
			name:        "Case with commission",
			balance:     1001.0,
			price:       100.0,
			feeRate:     0.001,
			expectedQty: 10,
		},
		{
			name:        "Zero balance",
			balance:     0.0,
			price:       100.0,
			feeRate:     0.001,
			expectedQty: 0,
		},
		{
			name:        "Zero price",
			balance:     1000.0,
			price:       0.0,
			feeRate:     0.001,
			expectedQty: 0,
		},
		{
			name:        "Negative fee treated as zero",
			balance:     500.0,
			price:       100.0,
			feeRate:     -0.5,
			expectedQty: 5,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			qty := CalculateMaxQuantity(tc.balance, tc.price, tc.feeRate)
			suite.InDelta(tc.expectedQty, qty, 1e-9, "Quantity mismatch")
		})
	}
}

func (suite *UtilsTestSuite) TestCalculateOrderQuantityByPercentage() {
	qty := CalculateOrderQuantityByPercentage(1000.0, 100.0, 0, 0.5)
	suite.InDelta(5.0, qty, 1e-9)
}

func (suite *UtilsTestSuite) TestRoundToDecimalPrecision() {
	suite.Equal(0.12345678, RoundToDecimalPrecision(0.123456789, 8))
	suite.Equal(1.0, RoundToDecimalPrecision(1.999, 0))
	suite.Equal(0.0, RoundToDecimalPrecision(0.000000001, 8))
}
