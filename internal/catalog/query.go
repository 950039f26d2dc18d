package catalog

// ProductPriceFragment selects a money amount.
const ProductPriceFragment = `
fragment productPrice on Money {
  value
  currencyCode
}
`

// SwatchOptionFragment selects swatch specific option value fields.
const SwatchOptionFragment = `
fragment swatchOption on SwatchOptionValue {
  isDefault
  hexColors
}
`

// MultipleChoiceOptionFragment selects the values of a multiple choice option.
const MultipleChoiceOptionFragment = `
fragment multipleChoiceOption on MultipleChoiceOption {
  values {
    edges {
      node {
        label
        ...swatchOption
      }
    }
  }
}
` + SwatchOptionFragment

// ProductInfoFragment selects every product field decoded into Product. The
// localeMeta alias is only included when the query runs with $hasLocale.
const ProductInfoFragment = `
fragment productInfo on Product {
  entityId
  name
  path
  brand {
    entityId
  }
  description
  prices {
    price {
      ...productPrice
    }
    salePrice {
      ...productPrice
    }
    retailPrice {
      ...productPrice
    }
  }
  images {
    edges {
      node {
        urlOriginal
        altText
        isDefault
      }
    }
  }
  variants {
    edges {
      node {
        entityId
        defaultImage {
          urlOriginal
          altText
          isDefault
        }
      }
    }
  }
  productOptions {
    edges {
      node {
        __typename
        entityId
        displayName
        ...multipleChoiceOption
      }
    }
  }
  localeMeta: metafields(namespace: $locale, keys: ["name", "description"])
    @include(if: $hasLocale) {
    edges {
      node {
        key
        value
      }
    }
  }
}
` + ProductPriceFragment + MultipleChoiceOptionFragment

// GetProductQuery resolves a storefront route and selects the product node.
const GetProductQuery = `
query getProduct(
  $hasLocale: Boolean = false
  $locale: String = "null"
  $path: String!
) {
  site {
    route(path: $path) {
      node {
        __typename
        ... on Product {
          ...productInfo
        }
      }
    }
  }
}
` + ProductInfoFragment
